package userhosted

import "room-game-bot/internal/game"

// Formats is the catalogue of games a user can host.
var Formats = []*game.Format{
	{
		ID:          "forumgame",
		Name:        "Forum Game",
		Description: "A game from the community's official forum.",
		Aliases:     []string{"ffg"},
	},
	{
		ID:          "acrotopia",
		Name:        "Acrotopia",
		Description: "Each round, players earn points by coming up with creative interpretations of an acronym chosen by the host.",
		FreeJoin:    true,
	},
	{
		ID:          "commonyms",
		Name:        "Commonyms",
		Description: "Players must find the word that applies to all of the words in the puzzle. Ex: sky, jay, sad | Answer: blue",
		FreeJoin:    true,
	},
	{
		ID:          "ghost",
		Name:        "Ghost",
		Description: "Each player adds a letter to a string of letters while trying not to form an English word on their turn. If a word is formed, that player is eliminated.",
	},
	{
		ID:          "hungergames",
		Name:        "Hunger Games",
		Description: "A game of storytelling, decision-making, swift responses and chance! Players choose their paths and overcome obstacles to be the last one standing.",
		Aliases:     []string{"hg"},
	},
	{
		ID:          "lettergetter",
		Name:        "Letter Getter",
		Description: "Players must complete the phrase with the given letters and numbers. Example: 26 L of the A would be 26 Letters of the Alphabet.",
		FreeJoin:    true,
	},
	{
		ID:          "lyrics",
		Name:        "Lyrics",
		Description: "Players have to guess the names and singers of songs based on lyrics presented by the host.",
		FreeJoin:    true,
	},
	{
		ID:          "madgabs",
		Name:        "Mad Gabs",
		Description: "The host gives the pronunciation of a word and players have to correctly identify the word to score points.",
		FreeJoin:    true,
	},
	{
		ID:          "mimics",
		Name:        "Mimics",
		Description: "Be the 2nd player to say the host's phrase exactly! Use deception to trick competitors into saying the host's phrase to earn points.",
		FreeJoin:    true,
	},
	{
		ID:          "precisetiming",
		Name:        "Precise Timing",
		Description: "Each round, the host will set a timer and players must check in before time runs out. The catch: the first one to check in is eliminated.",
		Aliases:     []string{"pt"},
	},
	{
		ID:          "privateobjects",
		Name:        "Private Objects",
		Description: "Each round, the host selects a topic and players message the host with an answer. Players gain points by identifying who gave the selected response.",
		Aliases:     []string{"po"},
	},
	{
		ID:          "similarities",
		Name:        "Similarities",
		Description: "Each round, the host names three objects and players must guess what the similarity between the three is.",
		FreeJoin:    true,
	},
	{
		ID:          "simonsays",
		Name:        "Simon Says",
		Description: "Each round, the host will announce an action. Players must only do the action when it is preceded by 'Simon Says', or they are eliminated.",
	},
	{
		ID:          "spotthereference",
		Name:        "Spot The Reference",
		Description: "Players must identify the source of a quote: who said it, or which movie or show it is from.",
		Aliases:     []string{"str"},
		FreeJoin:    true,
	},
	{
		ID:          "spyfall",
		Name:        "Spyfall",
		Description: "Each player is sent the location and a unique job, except the spy. By asking questions in turns, the spy tries to guess the location and the others try to discover the spy.",
	},
	{
		ID:          "thechosenone",
		Name:        "The Chosen One",
		Description: "The host sends a selected player three words that they must use in conversation. After the timer ends, everyone guesses who The Chosen One was.",
		Aliases:     []string{"tco", "chosenone"},
	},
	{
		ID:          "themissinglink",
		Name:        "The Missing Link",
		Description: "Players must find the missing word that completes both phrases! Example: Key _ Reaction (Chain)",
		Aliases:     []string{"missinglink", "tml"},
		FreeJoin:    true,
	},
	{
		ID:          "twotruthsandalie",
		Name:        "Two Truths and a Lie",
		Description: "Each round, the host presents three statements. Players have to correctly identify the lie to score points.",
		Aliases:     []string{"ttal", "ttaal"},
		FreeJoin:    true,
	},
	{
		ID:          "20questions",
		Name:        "20 Questions",
		Description: "The host chooses an object and players take turns asking yes/no questions to figure out what it is. The game ends if no one guesses correctly after 20 questions!",
		Aliases:     []string{"20q", "20qs"},
	},
}

// NewRegistry returns a registry holding every hosted format.
func NewRegistry() *game.Registry {
	r := game.NewRegistry()
	for _, f := range Formats {
		// Formats have non-empty ids, so Register cannot fail here.
		_ = r.Register(f)
	}
	return r
}
