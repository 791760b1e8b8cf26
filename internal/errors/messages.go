package errors

import (
	"golang.org/x/text/language"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.Japanese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var messages = map[language.Tag]map[ErrCode]string{
	language.English: {
		ErrCodeNetworkUnavailable: "No internet connection. Check your network and try again.",
		ErrCodeTimeout:            "The request timed out. Please try again.",
		ErrCodeInvalidRequest:     "The search keyword was rejected. Try a different keyword.",
		ErrCodeUnauthorized:       "GitHub rejected the credentials. Check your access token.",
		ErrCodeNotFound:           "The requested resource was not found.",
		ErrCodeRateLimited:        "Too many requests. Wait a moment and try again.",
		ErrCodeServiceUnavailable: "GitHub is currently unavailable. Please try again later.",
		ErrCodeGeneric:            "Something went wrong. Please try again.",
	},
	language.Japanese: {
		ErrCodeNetworkUnavailable: "インターネットに接続されていません。ネットワークを確認して再試行してください。",
		ErrCodeTimeout:            "リクエストがタイムアウトしました。再試行してください。",
		ErrCodeInvalidRequest:     "検索キーワードが無効です。別のキーワードをお試しください。",
		ErrCodeUnauthorized:       "認証に失敗しました。アクセストークンを確認してください。",
		ErrCodeNotFound:           "リソースが見つかりませんでした。",
		ErrCodeRateLimited:        "リクエストが多すぎます。しばらくしてから再試行してください。",
		ErrCodeServiceUnavailable: "GitHubが現在利用できません。しばらくしてから再試行してください。",
		ErrCodeGeneric:            "エラーが発生しました。再試行してください。",
	},
}

// MatchLanguage picks the best supported language for an Accept-Language
// header or a plain tag such as "ja".
func MatchLanguage(preference string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(preference)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, _ := languageMatcher.Match(tags...)
	return supportedLanguages[index]
}

// Message returns the user-facing message for code in the given language
func Message(code ErrCode, tag language.Tag) string {
	table, ok := messages[tag]
	if !ok {
		table = messages[language.English]
	}
	if msg, ok := table[code]; ok {
		return msg
	}
	return table[ErrCodeGeneric]
}
