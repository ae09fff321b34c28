package storage

import (
	"encoding/json"
	"errors"

	"ecoscape/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeLandscape(r model.LandscapeRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeLandscape(data []byte) (model.LandscapeRecord, error) {
	var record model.LandscapeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.LandscapeRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.LandscapeRecord{}, err
	}
	return record, nil
}

func EncodeRunSummary(s model.RunSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return summary, nil
}

func EncodeGenerationStats(rows []model.GenerationStats) ([]byte, error) {
	return json.Marshal(rows)
}

func DecodeGenerationStats(data []byte) ([]model.GenerationStats, error) {
	var rows []model.GenerationStats
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// Stamp fills in the current codec versions on a record about to be saved.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}
