package domain

import "errors"

var (
	// ErrCategoryNotFound is returned when a category id has no registered question set.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrEmptyCategory is returned when a session is started on a category without questions.
	ErrEmptyCategory = errors.New("category has no questions")
	// ErrInvalidTransition is returned when a session operation is invoked in a phase that forbids it.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrAlreadyAnswered is returned when an answer targets a question that already has one.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrPersistenceRead indicates the leaderboard backend could not be read.
	ErrPersistenceRead = errors.New("leaderboard read failed")
	// ErrPersistenceWrite indicates the leaderboard backend could not be written.
	ErrPersistenceWrite = errors.New("leaderboard write failed")
	// ErrKeyNotFound is returned by key-value backends for absent keys.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidBank indicates question bank data failed validation.
	ErrInvalidBank = errors.New("invalid question bank")
)
