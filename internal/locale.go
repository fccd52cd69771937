package internal

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// TextKey names a user-facing text
type TextKey int

const (
	TextAuthFailed TextKey = iota
	TextLoadGamesFailed
	TextLoadGameFailed
	TextCreateGameFailed
	TextSendFailed
	TextEndGameFailed
	TextSaveResultFailed
	TextNoGamesYet
	TextGameSummary
	TextLoginRequired
	TextTitle
	TextPastGames
	TextNewGame
	TextNotFinished
	TextNoScore
	TextMessagePlaceholder
	TextDiagnosisPlaceholder
	TextSending
	TextFinishing
	TextDate
	TextDiagnosis
	TextScore
)

// supported locales; the first entry is the fallback
var supportedLocales = []language.Tag{language.English, language.Russian}

var catalogs = [][]string{
	{
		TextAuthFailed:           "Authentication failed. Please log in again.",
		TextLoadGamesFailed:      "Could not load past games. Please try again later.",
		TextLoadGameFailed:       "Could not load the game. Please try again later.",
		TextCreateGameFailed:     "Could not create a new game. Please try again later.",
		TextSendFailed:           "Could not send the message. Please try again.",
		TextEndGameFailed:        "Could not finish the game. Please try again.",
		TextSaveResultFailed:     "Could not save the game result. Please try again.",
		TextNoGamesYet:           "You have no active games yet. Start a new game to begin.",
		TextGameSummary:          "Game over. Diagnosis: %s. Score: %d. Feedback: %s",
		TextLoginRequired:        "You are not logged in. Run `medsim login` first.",
		TextTitle:                "Virtual doctor's office",
		TextPastGames:            "Past games",
		TextNewGame:              "New game",
		TextNotFinished:          "Not finished",
		TextNoScore:              "No score",
		TextMessagePlaceholder:   "Type a message...",
		TextDiagnosisPlaceholder: "Enter your diagnosis",
		TextSending:              "Sending...",
		TextFinishing:            "Finishing...",
		TextDate:                 "Date",
		TextDiagnosis:            "Diagnosis",
		TextScore:                "Score",
	},
	{
		TextAuthFailed:           "Ошибка аутентификации. Пожалуйста, войдите снова.",
		TextLoadGamesFailed:      "Ошибка при загрузке прошлых игр. Пожалуйста, попробуйте позже.",
		TextLoadGameFailed:       "Ошибка при загрузке игры. Пожалуйста, попробуйте позже.",
		TextCreateGameFailed:     "Ошибка при создании новой игры. Пожалуйста, попробуйте позже.",
		TextSendFailed:           "Ошибка при отправке сообщения. Пожалуйста, попробуйте еще раз.",
		TextEndGameFailed:        "Ошибка при завершении игры. Пожалуйста, попробуйте еще раз.",
		TextSaveResultFailed:     "Ошибка при сохранении результатов игры. Пожалуйста, попробуйте еще раз.",
		TextNoGamesYet:           "У вас пока нет активных игр. Начните новую игру.",
		TextGameSummary:          "Игра завершена. Диагноз: %s. Оценка: %d. Обратная связь: %s",
		TextLoginRequired:        "Вы не вошли в систему. Сначала выполните `medsim login`.",
		TextTitle:                "Виртуальный кабинет врача",
		TextPastGames:            "Прошлые игры",
		TextNewGame:              "Новая игра",
		TextNotFinished:          "Не завершено",
		TextNoScore:              "Нет оценки",
		TextMessagePlaceholder:   "Введите сообщение...",
		TextDiagnosisPlaceholder: "Введите ваш диагноз",
		TextSending:              "Отправка...",
		TextFinishing:            "Завершение...",
		TextDate:                 "Дата",
		TextDiagnosis:            "Диагноз",
		TextScore:                "Оценка",
	},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Catalog resolves user-facing texts for one locale
type Catalog struct {
	tag   language.Tag
	texts []string
}

// NewCatalog picks the closest supported locale for pref. An empty pref
// falls back to LC_ALL, LC_MESSAGES and LANG.
func NewCatalog(pref string) *Catalog {
	if pref == "" {
		for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
			if v := os.Getenv(key); v != "" {
				pref = v
				break
			}
		}
	}
	_, idx, _ := localeMatcher.Match(language.Make(normalizeLocale(pref)))
	return &Catalog{tag: supportedLocales[idx], texts: catalogs[idx]}
}

// normalizeLocale turns POSIX forms like "ru_RU.UTF-8" into BCP 47
func normalizeLocale(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "C" || s == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(s, "_", "-")
}

// Tag returns the resolved locale
func (c *Catalog) Tag() language.Tag {
	return c.tag
}

// Text returns the text for key
func (c *Catalog) Text(key TextKey) string {
	if int(key) < len(c.texts) && c.texts[key] != "" {
		return c.texts[key]
	}
	return catalogs[0][key]
}

// Format fills the text for key with args
func (c *Catalog) Format(key TextKey, args ...interface{}) string {
	return fmt.Sprintf(c.Text(key), args...)
}
