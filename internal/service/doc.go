// Package service contains the application use cases: registration with
// email verification, login and session authentication (AccountService), and
// per-user task management (TaskService).
//
// Services receive their collaborators through constructor injection and
// depend only on the interfaces in internal/store, internal/mail and
// internal/service/auth, never on a concrete database or transport.
package service
