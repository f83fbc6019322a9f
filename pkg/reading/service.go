package reading

import (
	"encoding/hex"
	"reflect"

	"github.com/NotCoffee418/p1plus_monitor/pkg/obis"
	ms "github.com/mitchellh/mapstructure"
)

// FromFields decodes a field map into a Reading. Fields missing from the
// telegram keep their zero value.
func FromFields(fields obis.Fields) (*Reading, error) {
	var reading Reading
	config := &ms.DecoderConfig{
		DecodeHook: obisValueHookFunc(),
		Result:     &reading,
	}

	decoder, err := ms.NewDecoder(config)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]obis.Value(fields)); err != nil {
		return nil, err
	}
	return &reading, nil
}

// DecodeIdentifier returns the identifier as ASCII when it is hex encoded,
// otherwise unchanged.
func DecodeIdentifier(identifier string) string {
	if decoded, err := hex.DecodeString(identifier); err == nil {
		return string(decoded)
	}
	return identifier
}

func obisValueHookFunc() ms.DecodeHookFunc {
	valueType := reflect.TypeOf(obis.Value{})
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f != valueType {
			return data, nil
		}
		return data.(obis.Value).Native(), nil
	}
}
