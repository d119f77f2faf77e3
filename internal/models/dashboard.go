package models

// RecentSummary backs the dashboard page. A trainer without battles gets
// zero values and empty lists from the backend.
type RecentSummary struct {
	WinRate             float64              `json:"win_rate"`
	LatestRank          int                  `json:"latest_rank"`
	LatestWinPokemon    string               `json:"latest_win_pokemon"`
	LatestLosePokemon   string               `json:"latest_lose_pokemon"`
	RecentBattleHistory []RecentBattle       `json:"recent_battle_history"`
	BattleCounts        []BattleCountPerDate `json:"battle_counts"`
}

func (s *RecentSummary) UnmarshalJSON(data []byte) error {
	type Alias RecentSummary
	return flexUnmarshal(data, (*Alias)(s))
}

type RecentBattle struct {
	BattleID         string `json:"battle_id"`
	CreatedAt        string `json:"created_at"`
	NextRank         int    `json:"next_rank"`
	OpponentPokemon1 string `json:"opponent_pokemon_1"`
	WinOrLose        string `json:"win_or_lose"`
	YourPokemon1     string `json:"your_pokemon_1"`
}

func (b *RecentBattle) UnmarshalJSON(data []byte) error {
	type Alias RecentBattle
	return flexUnmarshal(data, (*Alias)(b))
}

type BattleCountPerDate struct {
	BattleDate  string `json:"battle_date"`
	BattleCount int    `json:"battle_count"`
}

func (c *BattleCountPerDate) UnmarshalJSON(data []byte) error {
	type Alias BattleCountPerDate
	return flexUnmarshal(data, (*Alias)(c))
}

// Season is a competitive ranking period. Season 0 is the all-time view.
type Season struct {
	Season         int    `json:"season"`
	SeasonStartEnd string `json:"seasonStartEnd"`
}

type SaveTrainerRequest struct {
	TrainerID string `json:"trainer_id"`
}

type SetSeasonRequest struct {
	Season *int `json:"season" validate:"required,min=0"`
}
