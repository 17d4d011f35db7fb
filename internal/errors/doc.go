// Package errors defines the typed application errors of the crawler.
//
// Every failure the pipeline reasons about is an *AppError with an ErrorType.
// The exported sentinels (ErrDownloadTimeout, ErrEnumerationExhausted,
// ErrEmptyResult, ErrInteraction) match any AppError of the same type through
// errors.Is, so callers never compare messages:
//
//	if errors.Is(err, apperrors.ErrEnumerationExhausted) {
//	    // fatal: abort the run
//	}
//
// Failures are handled at the narrowest scope that can continue. Download
// timeouts skip one combination; enumeration exhaustion and empty results
// end the run.
package errors
