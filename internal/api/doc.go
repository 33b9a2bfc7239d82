// Package api adapts HTTP requests to the user and reimbursement services.
//
// Handlers decode JSON bodies and URL parameters, take the caller identified
// by middleware.AuthMiddleware from the request context, invoke a service and
// encode the result. Service failures are translated by HandleAPIError:
// invalid input, unknown users and invalid statuses become 400, forbidden
// callers 403 and token or credential failures 401. Anything else is a 500 with a generic message; details go only to
// the redacted logs.
package api
