// Package domain defines the core business entities of the application:
// marketplaces, routines and their task templates, tasks, and users.
// Entities carry their own validation and state-transition logic so the
// persistence and API layers stay free of business rules.
package domain
