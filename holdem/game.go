package holdem

import (
	"sync"

	"pokerverse/card"
)

// Game is the state machine of one room: seats, the hand in progress and
// its betting. It performs no I/O and starts no goroutines.
type Game struct {
	cfg    Config
	roomID string

	mu sync.Mutex

	// seats
	seats  []*Player
	byName map[string]*Player

	// hand state
	street     Street
	handNumber int
	button     int
	turn       int
	deck       *card.Deck
	board      []card.Card
	pot        int64
	round      *bettingRound

	handStartChips map[string]int64
	handStartTotal int64

	frozen     *FatalError
	lastResult *Result
}

func NewGame(roomID string, cfg Config) (*Game, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Game{
		cfg:    cfg,
		roomID: roomID,
		seats:  make([]*Player, cfg.MaxPlayers),
		byName: make(map[string]*Player, cfg.MaxPlayers),
		street: StreetWaiting,
		button: NoSeat,
		turn:   NoSeat,
	}, nil
}

func (g *Game) RoomID() string { return g.roomID }

func (g *Game) Config() Config { return g.cfg }

// Join seats a player on the lowest free seat.
func (g *Game) Join(username string, chips int64) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if username == "" {
		return NoSeat, invalidAction("username required")
	}
	if chips < 0 {
		return NoSeat, invalidAction("negative buy-in %d", chips)
	}
	if _, ok := g.byName[username]; ok {
		return NoSeat, ErrAlreadySeated
	}
	seat := NoSeat
	for i, p := range g.seats {
		if p == nil {
			seat = i
			break
		}
	}
	if seat == NoSeat {
		return NoSeat, ErrRoomFull
	}

	p := &Player{Username: username, Seat: seat, chips: chips}
	if g.street != StreetWaiting || chips == 0 {
		p.status = StatusSittingOut
	}
	g.seats[seat] = p
	g.byName[username] = p
	return seat, nil
}

// Leave removes a player. During a hand the player is folded (a normal
// fold when it is their turn) and the seat is freed when the hand ends.
// removed reports whether the seat is already free.
func (g *Game) Leave(username string) (removed bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.byName[username]
	if p == nil {
		return false, ErrNotSeated
	}
	if g.street == StreetWaiting {
		g.removeLocked(p)
		return true, nil
	}

	p.leaving = true
	p.away = true
	if !g.street.Betting() || p.status != StatusActive {
		return false, nil
	}
	if g.turn == p.Seat {
		return false, g.actLocked(p, ActionFold, 0)
	}
	p.status = StatusFolded
	p.lastAction = ActionFold
	g.round.acted(p.Seat)
	return false, g.progressLocked(g.turn, true)
}

// SetAway flags a disconnected (or returning) player. Away players sit
// out from the next hand; their chips stay on the table.
func (g *Game) SetAway(username string, away bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.byName[username]
	if p == nil {
		return ErrNotSeated
	}
	p.away = away
	if !away {
		p.leaving = false
	}
	if g.street == StreetWaiting {
		p.resetForHand()
	}
	return nil
}

// StartHand shuffles, moves the button, posts blinds and deals hole cards.
func (g *Game) StartHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen != nil {
		return ErrRoomFrozen
	}
	if g.street != StreetWaiting {
		return ErrAlreadyInProgress
	}

	dealt := 0
	for _, p := range g.seats {
		if p == nil {
			continue
		}
		p.resetForHand()
		if p.status == StatusActive {
			dealt++
		}
	}
	if dealt < g.cfg.MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.handNumber++
	g.handStartChips = make(map[string]int64, dealt)
	g.handStartTotal = 0
	for _, p := range g.seats {
		if p != nil && p.status == StatusActive {
			g.handStartChips[p.Username] = p.chips
			g.handStartTotal += p.chips
		}
	}
	g.deck = g.cfg.NewDeck()
	g.board = make([]card.Card, 0, 5)
	g.pot = 0
	g.lastResult = nil

	g.button = g.nextSeatLocked(g.button, (*Player).canAct)
	var sb, bb int
	if dealt == 2 {
		// heads-up: the button posts the small blind and acts first preflop
		sb = g.button
		bb = g.nextSeatLocked(sb, (*Player).canAct)
	} else {
		sb = g.nextSeatLocked(g.button, (*Player).canAct)
		bb = g.nextSeatLocked(sb, (*Player).canAct)
	}

	for i := 0; i < 2; i++ {
		for seat, n := sb, 0; n < dealt; seat, n = g.nextSeatLocked(seat, (*Player).canAct), n+1 {
			cs, err := g.deck.Draw(1)
			if err != nil {
				return g.abortLocked(&FatalError{Detail: "deck exhausted while dealing"})
			}
			g.seats[seat].hole = append(g.seats[seat].hole, cs[0])
		}
	}

	g.street = StreetPreflop
	g.round = newBettingRound(g.actorsLocked())
	g.postBlindLocked(g.seats[sb], g.cfg.SmallBlind)
	g.postBlindLocked(g.seats[bb], g.cfg.BigBlind)
	g.round.highBet = maxInt64(g.round.highBet, g.cfg.BigBlind)
	g.turn = NoSeat
	return g.progressLocked(bb, false)
}

func (g *Game) postBlindLocked(p *Player, amount int64) {
	g.round.commit(p, amount)
	p.lastAction = ActionBlind
}

// Act applies a betting decision of the player on turn. A failed
// validation leaves the game untouched.
func (g *Game) Act(username string, action Action, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.byName[username]
	if p == nil || g.turn == NoSeat || p.Seat != g.turn {
		return ErrNotYourTurn
	}
	if !g.street.Betting() || g.round == nil {
		return ErrRoundNotActive
	}
	return g.actLocked(p, action, amount)
}

// TimeoutAction acts for the player on turn: check when free, else fold.
func (g *Game) TimeoutAction() (string, Action, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.turn == NoSeat || g.round == nil {
		return "", ActionNone, ErrRoundNotActive
	}
	p := g.seats[g.turn]
	action := ActionFold
	if g.round.toCall(p) == 0 {
		action = ActionCheck
	}
	return p.Username, action, g.actLocked(p, action, 0)
}

func (g *Game) actLocked(p *Player, action Action, amount int64) error {
	r := g.round
	toCall := r.toCall(p)

	switch action {
	case ActionFold:
		p.status = StatusFolded
		r.acted(p.Seat)
	case ActionCheck:
		if toCall > 0 {
			return invalidAction("cannot check facing a bet of %d", toCall)
		}
		r.acted(p.Seat)
	case ActionCall:
		if toCall == 0 {
			action = ActionCheck
		} else {
			r.commit(p, toCall)
		}
		r.acted(p.Seat)
	case ActionRaise:
		maxTo := p.chips + p.bet
		if amount > maxTo {
			return ErrInsufficientChips
		}
		if amount <= r.highBet {
			return invalidAction("raise to %d does not exceed the current bet %d", amount, r.highBet)
		}
		if minTo := g.minRaiseToLocked(); amount < minTo && amount != maxTo {
			return invalidAction("raise to %d is below the minimum %d", amount, minTo)
		}
		r.commit(p, amount-p.bet)
		r.reopen(p.Seat, g.actorsLocked())
	default:
		return invalidAction("unknown action %v", action)
	}

	p.lastAction = action
	return g.progressLocked(p.Seat, false)
}

func (g *Game) minRaiseToLocked() int64 {
	return maxInt64(2*g.round.highBet, g.cfg.BigBlind)
}

// progressLocked runs after every mutation: verify, then either close the
// street or hand the turn to the next seat owing a decision. keepTurn
// leaves a still-pending turn holder in place.
func (g *Game) progressLocked(from int, keepTurn bool) error {
	if err := g.verifyLocked(); err != nil {
		return err
	}
	if g.roundSettledLocked() {
		return g.closeStreetLocked()
	}
	if keepTurn && g.turn != NoSeat && g.round.needsAction(g.turn) && g.seats[g.turn].canAct() {
		return nil
	}
	g.turn = g.nextToActLocked(from)
	if g.turn == NoSeat {
		return g.closeStreetLocked()
	}
	return nil
}

func (g *Game) roundSettledLocked() bool {
	if g.contestingLocked() <= 1 {
		return true
	}
	actors := g.actorsLocked()
	if len(actors) == 0 {
		return true
	}
	if len(actors) == 1 && g.round.toCall(g.seats[actors[0]]) == 0 {
		return true
	}
	return g.round.pending() == 0
}

// closeStreetLocked collects bets and deals the next street, running the
// board out while nobody is left to bet, until the hand reaches showdown.
func (g *Game) closeStreetLocked() error {
	for {
		g.collectBetsLocked()
		if g.contestingLocked() <= 1 || g.street == StreetRiver {
			return g.showdownLocked()
		}

		g.street++
		cs, err := g.deck.Draw(g.street.boardSize() - len(g.board))
		if err != nil {
			return g.abortLocked(&FatalError{Detail: "deck exhausted on " + g.street.String()})
		}
		g.board = append(g.board, cs...)
		g.round = newBettingRound(g.actorsLocked())
		g.turn = NoSeat
		if !g.roundSettledLocked() {
			g.turn = g.nextToActLocked(g.button)
			return g.verifyLocked()
		}
	}
}

func (g *Game) collectBetsLocked() {
	for _, p := range g.seats {
		if p != nil {
			g.pot += p.collectBet()
		}
	}
}

func (g *Game) showdownLocked() error {
	g.turn = NoSeat
	g.round = nil
	g.street = StreetShowdown

	res, fe := g.settleLocked()
	if fe != nil {
		return g.abortLocked(fe)
	}
	g.lastResult = res
	return g.verifyLocked()
}

// FinishHand clears a settled hand and returns the room to waiting.
// Players who left during the hand lose their seat here.
func (g *Game) FinishHand() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.street != StreetShowdown {
		return ErrRoundNotActive
	}
	g.resetHandLocked()
	return nil
}

func (g *Game) resetHandLocked() {
	for _, p := range g.seats {
		if p == nil {
			continue
		}
		if p.leaving {
			g.removeLocked(p)
			continue
		}
		p.resetForHand()
	}
	g.street = StreetWaiting
	g.turn = NoSeat
	g.round = nil
	g.deck = nil
	g.board = nil
	g.pot = 0
	g.handStartChips = nil
	g.handStartTotal = 0
}

// verifyLocked checks chip conservation for the hand in progress.
func (g *Game) verifyLocked() error {
	if g.handStartChips == nil {
		return nil
	}
	sum := g.pot
	for name := range g.handStartChips {
		if p := g.byName[name]; p != nil {
			sum += p.chips + p.bet
		}
	}
	if sum != g.handStartTotal {
		return g.abortLocked(&FatalError{
			Expected: g.handStartTotal,
			Actual:   sum,
			Detail:   "chip conservation violated",
		})
	}
	return nil
}

// abortLocked restores every stack to its hand-start value and freezes the room.
func (g *Game) abortLocked(fe *FatalError) error {
	fe.RoomID = g.roomID
	fe.HandNumber = g.handNumber
	for name, chips := range g.handStartChips {
		if p := g.byName[name]; p != nil {
			p.chips = chips
			p.bet = 0
		}
	}
	g.resetHandLocked()
	g.lastResult = nil
	g.frozen = fe
	return fe
}

func (g *Game) removeLocked(p *Player) {
	g.seats[p.Seat] = nil
	delete(g.byName, p.Username)
}

// nextSeatLocked walks the ring after from and returns the first seat
// whose player matches, or NoSeat.
func (g *Game) nextSeatLocked(from int, match func(*Player) bool) int {
	n := len(g.seats)
	for i := 1; i <= n; i++ {
		seat := ((from+i)%n + n) % n
		if p := g.seats[seat]; p != nil && match(p) {
			return seat
		}
	}
	return NoSeat
}

func (g *Game) nextToActLocked(from int) int {
	return g.nextSeatLocked(from, func(p *Player) bool {
		return p.canAct() && g.round.needsAction(p.Seat)
	})
}

// actorsLocked lists seats that can still bet this hand.
func (g *Game) actorsLocked() []int {
	out := make([]int, 0, len(g.seats))
	for _, p := range g.seats {
		if p != nil && p.canAct() {
			out = append(out, p.Seat)
		}
	}
	return out
}

func (g *Game) contestingLocked() int {
	n := 0
	for _, p := range g.seats {
		if p != nil && p.status.inHand() {
			n++
		}
	}
	return n
}

func (g *Game) Street() Street {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.street
}

func (g *Game) HandNumber() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handNumber
}

// InProgress reports whether a hand is being played or awaits FinishHand.
func (g *Game) InProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.street != StreetWaiting
}

// Frozen returns the error that froze the room, if any.
func (g *Game) Frozen() *FatalError {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frozen
}

// Turn returns the player on turn and whether they are away.
func (g *Game) Turn() (username string, away bool, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.turn == NoSeat {
		return "", false, false
	}
	p := g.seats[g.turn]
	return p.Username, p.away, true
}

func (g *Game) Seated(username string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.byName[username]
	return ok
}

func (g *Game) SeatedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.byName)
}

// LastResult is the settlement of the most recent hand, nil after an abort.
func (g *Game) LastResult() *Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastResult
}

// TurnOptions is what the player on turn may do. MinRaiseTo and
// MaxRaiseTo are zero when raising is not possible.
type TurnOptions struct {
	Actions    []Action
	ToCall     int64
	MinRaiseTo int64
	MaxRaiseTo int64
}

// LegalActions lists what username may do now.
func (g *Game) LegalActions(username string) (TurnOptions, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.byName[username]
	if p == nil || g.turn == NoSeat || p.Seat != g.turn {
		return TurnOptions{}, ErrNotYourTurn
	}
	return g.turnOptionsLocked(p), nil
}

func (g *Game) turnOptionsLocked(p *Player) TurnOptions {
	opts := TurnOptions{ToCall: g.round.toCall(p), Actions: []Action{ActionFold}}
	if opts.ToCall == 0 {
		opts.Actions = append(opts.Actions, ActionCheck)
	} else {
		opts.Actions = append(opts.Actions, ActionCall)
	}
	if maxTo := p.chips + p.bet; maxTo > g.round.highBet {
		opts.Actions = append(opts.Actions, ActionRaise)
		opts.MaxRaiseTo = maxTo
		opts.MinRaiseTo = minInt64(g.minRaiseToLocked(), maxTo)
	}
	return opts
}
