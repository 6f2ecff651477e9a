// Package domain defines the records shared by the store, the rooms and the API:
// instances, their comments and their overlay display settings.
package domain
