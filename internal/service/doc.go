// Package service contains the reimbursement application's workflows.
//
// UserService handles registration, login, lookup and deletion of users.
// ReimbursementService handles creation, resolution and querying of
// reimbursements. Both receive interface-typed stores through their
// constructors and run every write inside a store.TxManager transaction.
//
// Admin-only operations call Authorize before doing anything else, so a
// forbidden caller never reaches a store. Failures are returned as *Error
// values whose Kind is one of the Err* sentinels and whose message is safe
// to show to clients; anything else is an internal error.
package service
