package config

import (
	"os"
	"strconv"
	"strings"
)

// Exist - переменная окружения задана и содержит не только пробелы.
func Exist(key string) bool {
	return GetEnv(key) != ""
}

// GetEnv - значение переменной без пробелов по краям.
func GetEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// GetIntEnv - числовое значение переменной, 0 если переменная не число.
func GetIntEnv(key string) int {
	v, err := strconv.Atoi(GetEnv(key))
	if err != nil {
		return 0
	}
	return v
}

func GetBoolEnv(key string) bool {
	v, _ := strconv.ParseBool(GetEnv(key))
	return v
}
