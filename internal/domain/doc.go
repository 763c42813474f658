// Package domain contains the core business entities of the task digest
// service: users, who exist only once their email address is verified, and
// the tasks they own. It is independent of any storage or delivery mechanism.
package domain
