package round

import (
	"errors"

	"github.com/okian/witarcade/internal/domain/catalog"
)

// Round-local rejections. None of them change the round.
var (
	ErrEntityNotFound   = catalog.ErrEntityNotFound
	ErrDuplicateGuess   = errors.New("already guessed")
	ErrRoundOver        = errors.New("round is over")
	ErrEmptyGuess       = errors.New("empty guess")
	ErrInvalidChallenge = errors.New("invalid challenge code")
)
