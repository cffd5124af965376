package ocr

import "regexp"

const maxBibDigits = 6

var digitRun = regexp.MustCompile(`[0-9]+`)

// PickBibNumber выбирает номер из текста OCR: самая длинная группа цифр
// длиной от 1 до 6, при равной длине побеждает первая. nil, если групп нет.
func PickBibNumber(text string) *string {
	var best string
	for _, tok := range digitRun.FindAllString(text, -1) {
		if len(tok) > maxBibDigits {
			continue
		}
		if len(tok) > len(best) {
			best = tok
		}
	}
	if best == "" {
		return nil
	}
	return &best
}
