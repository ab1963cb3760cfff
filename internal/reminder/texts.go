package reminder

import "github.com/hray3182/arcana/internal/models"

type copyText struct {
	Title string
	Body  string
}

var stageTexts = map[models.Stage]copyText{
	models.StageInstant: {
		Title: "Your cards are still on the table",
		Body:  "Finish your reading with Premium and unlock unlimited spreads and daily horoscopes.",
	},
	models.StageTwentyFourHour: {
		Title: "The stars have more to say",
		Body:  "Yesterday's reading was only the first card. Go Premium to see the full spread.",
	},
	models.StageFiveDay: {
		Title: "A new moon, a new reading",
		Body:  "Premium members get a personal horoscope every morning. Start your free trial today.",
	},
	models.StageWeekly: {
		Title: "Your weekly forecast is ready",
		Body:  "Unlock the full week ahead, love and career spreads included, with Premium.",
	},
}

var genericText = copyText{
	Title: "Arcana",
	Body:  "Discover what the cards hold for you today.",
}

var dailyText = copyText{
	Title: "Your daily reading is ready",
	Body:  "Today's card and horoscope are in. Tap to reveal them.",
}

// textFor picks the copy for a ladder stage, falling back to the generic
// pair for anything unknown.
func textFor(stage models.Stage) copyText {
	if t, ok := stageTexts[stage]; ok {
		return t
	}
	return genericText
}
