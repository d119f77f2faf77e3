package models

import (
	"strings"
)

const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"

	// MaxTeamSize bounds a comma-joined team roster.
	MaxTeamSize = 6
	// SelectionSlots is the number of Pokémon brought into a battle.
	SelectionSlots = 3
)

// BattleLogEntry is one row of the paginated battle list.
type BattleLogEntry struct {
	BattleID               string `json:"battle_id"`
	BattleCreatedAt        string `json:"battle_created_at"`
	WinOrLose              string `json:"win_or_lose"`
	NextRank               int    `json:"next_rank"`
	YourPokemonTeam        string `json:"your_pokemon_team"`
	OpponentPokemonTeam    string `json:"opponent_pokemon_team"`
	YourPokemonSelect1     string `json:"your_pokemon_select1"`
	YourPokemonSelect2     string `json:"your_pokemon_select2"`
	YourPokemonSelect3     string `json:"your_pokemon_select3"`
	OpponentPokemonSelect1 string `json:"opponent_pokemon_select1"`
	OpponentPokemonSelect2 string `json:"opponent_pokemon_select2"`
	OpponentPokemonSelect3 string `json:"opponent_pokemon_select3"`
	Memo                   string `json:"memo"`
	Video                  string `json:"video"`
}

func (b *BattleLogEntry) UnmarshalJSON(data []byte) error {
	type Alias BattleLogEntry
	return flexUnmarshal(data, (*Alias)(b))
}

// YourSelection returns the three selection slots in order. Empty strings
// mean no Pokémon was chosen for that slot.
func (b BattleLogEntry) YourSelection() [SelectionSlots]string {
	return [SelectionSlots]string{b.YourPokemonSelect1, b.YourPokemonSelect2, b.YourPokemonSelect3}
}

func (b BattleLogEntry) OpponentSelection() [SelectionSlots]string {
	return [SelectionSlots]string{b.OpponentPokemonSelect1, b.OpponentPokemonSelect2, b.OpponentPokemonSelect3}
}

// IsWin reports whether the trainer won the battle.
func (b BattleLogEntry) IsWin() bool {
	return b.WinOrLose == OutcomeWin
}

// SplitTeam splits a comma-joined roster. ok is false unless the roster
// holds between 1 and MaxTeamSize non-empty names; the names are returned
// either way so callers can still render what arrived.
func SplitTeam(team string) (names []string, ok bool) {
	if strings.TrimSpace(team) == "" {
		return nil, false
	}
	ok = true
	for _, part := range strings.Split(team, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			ok = false
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 || len(names) > MaxTeamSize {
		ok = false
	}
	return names, ok
}

// InBattleLogEntry records the active Pokémon on each side for one turn.
// Turn numbers are not contiguous.
type InBattleLogEntry struct {
	Turn                FlexInt `json:"turn"`
	FrameNumber         FlexInt `json:"frame_number"`
	YourPokemonName     string  `json:"your_pokemon_name"`
	OpponentPokemonName string  `json:"opponent_pokemon_name"`
}

// MessageLogEntry is a battle message captured at (turn, frame).
type MessageLogEntry struct {
	Turn        FlexInt `json:"turn"`
	FrameNumber FlexInt `json:"frame_number"`
	Message     string  `json:"message"`
}

// FaintedSide tells which side's Pokémon won the exchange.
type FaintedSide string

const (
	YourPokemonWin     FaintedSide = "Your Pokemon Win"
	OpponentPokemonWin FaintedSide = "Opponent Pokemon Win"
)

type FaintedLogEntry struct {
	BattleID            string      `json:"battle_id"`
	Turn                FlexInt     `json:"turn"`
	YourPokemonName     string      `json:"your_pokemon_name"`
	OpponentPokemonName string      `json:"opponent_pokemon_name"`
	FaintedPokemonSide  FaintedSide `json:"fainted_pokemon_side"`
}

// YourWin treats any side other than YourPokemonWin as the opponent's win.
func (f FaintedLogEntry) YourWin() bool {
	return f.FaintedPokemonSide == YourPokemonWin
}

type UpdateMemoRequest struct {
	BattleID string `json:"battle_id" validate:"required"`
	Memo     string `json:"memo" validate:"max=4000"`
}
