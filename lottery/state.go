package lottery

import "fmt"

// State is the persistent state of one deployed contract.
type State struct {
	Address  Identity    // Contract identity; holds the pool
	Manager  Identity    // Deploying identity, the only one allowed to resolve a round
	MinStake uint64      // Minimum entry value in satoshis
	Players  []Identity  // Entries of the current round, in entry order
	Balance  uint64      // Sum of entry values accepted since the last reset
	Round    uint64      // Number of resolved rounds
	Last     *Resolution // Most recent resolution, nil before the first one
}

// Resolution describes one resolved round.
type Resolution struct {
	Round   uint64   // 1-based number of the resolved round
	Winner  Identity // Recipient of the pool
	Index   int      // Winner's index in the round's player list
	Entries int      // Number of entries in the round
	Amount  uint64   // Satoshis paid to the winner
	Seed    []byte   // Entropy the selection was derived from
}

// Deployed reports whether the state belongs to a deployed contract.
func (s *State) Deployed() bool {
	return !s.Manager.IsZero()
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	if s.Players != nil {
		c.Players = make([]Identity, len(s.Players))
		copy(c.Players, s.Players)
	}
	if s.Last != nil {
		c.Last = s.Last.Clone()
	}
	return &c
}

// Clone returns a copy of the resolution that shares no memory with r.
func (r *Resolution) Clone() *Resolution {
	c := *r
	c.Seed = append([]byte(nil), r.Seed...)
	return &c
}

// validate checks the invariants that must hold after every committed operation.
func (s *State) validate() error {
	if !s.Deployed() {
		return nil
	}
	if s.Address.IsZero() {
		return fmt.Errorf("%w: zero contract address", ErrInvalidState)
	}
	if len(s.Players) == 0 && s.Balance != 0 {
		return fmt.Errorf("%w: balance %d with no players", ErrInvalidState, s.Balance)
	}
	if len(s.Players) > 0 && s.Balance < uint64(len(s.Players))*s.MinStake {
		return fmt.Errorf("%w: balance %d below %d entries at minimum stake %d",
			ErrInvalidState, s.Balance, len(s.Players), s.MinStake)
	}
	if s.Last != nil && s.Last.Round != s.Round {
		return fmt.Errorf("%w: last resolution is round %d, state is at round %d",
			ErrInvalidState, s.Last.Round, s.Round)
	}
	return nil
}
