package handler

import "net/http"

// The pick lists the frontend offers when composing a creature. Fixed and
// public; served from memory so the frontend doesn't hardcode them.
var (
	animalOptions = []string{
		"Dragon", "Tiger", "Wolf", "Eagle", "Phoenix", "Lion", "Bear",
		"Fox", "Shark", "Dolphin", "Butterfly", "Snake", "Turtle",
		"Owl", "Falcon", "Leopard", "Panda", "Rabbit", "Deer", "Elephant",
	}

	abilityOptions = []string{
		"Fire Blast", "Water Gun", "Thunder Bolt", "Ice Beam", "Solar Beam",
		"Shadow Ball", "Psychic", "Earthquake", "Dragon Claw", "Aerial Ace",
		"Poison Jab", "Metal Claw", "Rock Slide", "Leaf Blade", "Hydro Pump",
		"Flash Cannon", "Dark Pulse", "Moonblast", "Energy Ball", "Flamethrower",
	}
)

// HandleOptions returns the available animal and ability pick lists.
//
// HTTP: GET /api/options (public)
func HandleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"animals":   animalOptions,
		"abilities": abilityOptions,
	})
}

// HandleHealth is the liveness probe.
//
// HTTP: GET /health
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
