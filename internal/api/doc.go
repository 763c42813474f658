// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts HTTP to the account and task services:
// registration, email verification, login and task management.
package api
