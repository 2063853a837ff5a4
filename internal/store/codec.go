package store

import (
	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

func encode(value any) ([]byte, error) {
	return codec.Marshal(value)
}

func decode(raw []byte, dest any) error {
	return codec.Unmarshal(raw, dest)
}
