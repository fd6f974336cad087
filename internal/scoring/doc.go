// Package scoring resolves the events fired by a check into a single
// outcome and score.
//
// Resolution sorts events by their order, sets the default incorrect event
// aside, decides correctness from what remains and keeps only the events
// that agree with that decision. When nothing agrees, the default incorrect
// event is the result. Scores are computed only for correct answers, or for
// incorrect ones when negative scores are allowed, using either attempt
// decay or trap-state mutations of session.currentQuestionScore.
package scoring
