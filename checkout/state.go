package checkout

import "fmt"

// Step is where a session stands in the checkout
type Step string

const (
	StepEntry    Step = "entry"
	StepConfirm  Step = "confirm"
	StepComplete Step = "complete"
)

// Receipt is the one-shot marker left behind by a committed order
type Receipt struct {
	OrderID uint   `json:"order_id"`
	Name    string `json:"name"`
}

// State is the checkout progress of one browser session. It only ever travels
// through LoadState and Save; handlers never keep it between requests.
type State struct {
	Step    Step       `json:"step"`
	Draft   *OrderForm `json:"draft,omitempty"`
	Receipt *Receipt   `json:"receipt,omitempty"`
}

// Codec is the session payload a State is read from and written back to
type Codec interface {
	Decode(v interface{}) error
	Encode(v interface{}) error
}

// LoadState reads the state stored in src. An empty payload yields a fresh Entry state.
func LoadState(src Codec) (*State, error) {
	st := &State{}
	if err := src.Decode(st); err != nil {
		return nil, fmt.Errorf("failed to load checkout state: %w", err)
	}
	if st.Step == "" {
		st.Step = StepEntry
	}
	return st, nil
}

// Save writes the state back to dst
func (s *State) Save(dst Codec) error {
	if err := dst.Encode(s); err != nil {
		return fmt.Errorf("failed to save checkout state: %w", err)
	}
	return nil
}
