package models

// ImageKind selects which capture set awaits labeling.
type ImageKind string

const (
	ImageKindPokemon    ImageKind = "pokemon"
	ImageKindNameWindow ImageKind = "name_window"
)

// LabelImage is an unlabeled capture with a time-limited read URL.
type LabelImage struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

// SelectOption feeds the label search-select. Value and Label are both the
// Japanese name; English is shown as a hint.
type SelectOption struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	English string `json:"english"`
}

type ImageLabel struct {
	FileName    string `json:"fileName" validate:"required"`
	PokemonName string `json:"pokemonName" validate:"required"`
}

type SetLabelsRequest struct {
	Kind   ImageKind    `json:"kind" validate:"omitempty,oneof=pokemon name_window"`
	Labels []ImageLabel `json:"labels" validate:"required,min=1,max=200,dive"`
}
