package handler

import "github.com/google/uuid"

func parseUUID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(raw))
	for i, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
