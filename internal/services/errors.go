package services

import "errors"

var (
	ErrPetNotFound     = errors.New("pet not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrRequestNotFound = errors.New("mating request not found")
	ErrUnauthorized    = errors.New("unauthorized")

	// ErrUsernameTaken is surfaced when the unique index on username refuses
	// an insert.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrDuplicateRequest is surfaced when a second pending request from the
	// same requester hits the partial unique index.
	ErrDuplicateRequest = errors.New("a pending request from this user already exists")

	// ErrPetNotVerified covers both unverified and banned targets.
	ErrPetNotVerified = errors.New("pet is not verified for mating requests")
	ErrPetBanned      = errors.New("pet is banned")

	// ErrRequestSettled means the request already left the pending state.
	ErrRequestSettled = errors.New("request has already been settled")

	ErrSelfRequest = errors.New("cannot send a mating request to your own pet")
)
