package cache

import (
	"strconv"
	"strings"
)

const (
	GlobalKeyPrefix = "cpaacademy"

	ServiceCatalog = "catalog"
	ServiceQuiz    = "quiz"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// SubjectsKey is the key of the full subject tree.
func SubjectsKey() string {
	return GenerateCacheKey(ServiceCatalog, "subjects", "all")
}

// UnitsKey is the key of one unit listing. Search is lower-cased so equal
// queries share an entry.
func UnitsKey(subjectID int64, search string) string {
	return GenerateCacheKey(ServiceCatalog, "units", strconv.FormatInt(subjectID, 10),
		strings.ToLower(strings.TrimSpace(search)))
}

// QuestionSetKey is the key of a question set with its questions.
func QuestionSetKey(id int64) string {
	return GenerateCacheKey(ServiceQuiz, "question_set", strconv.FormatInt(id, 10))
}
