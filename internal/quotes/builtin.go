package quotes

var builtinOrder = []string{Motivational, Inspirational, Life, Love}

var builtinQuotes = map[string][]string{
	Motivational: {
		"The best way to predict the future is to create it.",
		"Success is not how high you have climbed, but how you make a positive difference to the world.",
	},
	Inspirational: {
		"Life is 10% what happens to us and 90% how we react to it.",
		"The only limit to our realization of tomorrow is our doubts of today.",
	},
	Life: {
		"Get busy living or get busy dying.",
		"Life is what happens when you're busy making other plans.",
	},
	Love: {
		"You know you're in love when you can't fall asleep because reality is finally better than your dreams.",
		"The greatest thing you'll ever learn is just to love and be loved in return.",
	},
}
