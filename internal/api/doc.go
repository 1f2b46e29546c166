// Package api contains the HTTP handlers, request/response models and
// error mapping for the REST surface. Handlers stay thin: they decode and
// validate input, call a service, and translate the outcome through
// HandleAPIError so internal error detail never reaches a client.
package api
