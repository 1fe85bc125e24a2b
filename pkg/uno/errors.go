package uno

import "errors"

// Engine precondition failures. The coordinator matches these with
// errors.Is and forwards the message to the originating connection only.
var (
	ErrGameNotStarted = errors.New("game has not started")
	ErrGameEnded      = errors.New("game has ended")
	ErrNotYourTurn    = errors.New("not your turn")

	ErrPowerDrawPending = errors.New("draw your power card before continuing")

	ErrCardNotInHand     = errors.New("card not in hand")
	ErrIllegalMove       = errors.New("card cannot be played here")
	ErrWildRequiresColor = errors.New("wild card requires a chosen color")

	ErrAlreadyPlayedPower    = errors.New("already played a power card this turn")
	ErrPowerCardNotFound     = errors.New("power card not in inventory")
	ErrInsufficientPoints    = errors.New("not enough power points")
	ErrMissingTarget         = errors.New("power card requires a target player")
	ErrMissingColor          = errors.New("power card requires a color")
	ErrNoMatchingColorInHand = errors.New("no cards of that color in hand")

	ErrTooFewPlayers  = errors.New("not enough players to start")
	ErrTooManyPlayers = errors.New("too many players")
	ErrUnknownPlayer  = errors.New("player not in game")
)
