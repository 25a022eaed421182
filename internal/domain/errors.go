package domain

import "errors"

var (
	// ErrSessionExhausted is returned when a submission or question fetch happens
	// after the cursor has passed the last question.
	ErrSessionExhausted = errors.New("quiz session exhausted")
	// ErrNotInitialized is returned when the engine is driven before Initialize.
	ErrNotInitialized = errors.New("quiz session not initialized")
	// ErrQuestionType is returned when a submission does not match the current
	// question's type (e.g. a QCM answer for a flashcard).
	ErrQuestionType = errors.New("submission does not match question type")
	// ErrAlreadyAnswered is returned when the current question already has an
	// answer record; advance before submitting again.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrChallengeNotFound indicates an unknown or expired challenge ID.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
)
