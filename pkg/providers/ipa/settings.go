package ipa

import (
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/anirudhbiyani/httpd-authconfig/pkg/authconfig"
)

var validate = validator.New()

// Settings is the typed view of the options bag for one configure run.
type Settings struct {
	Host      string `mapstructure:"host" validate:"required,hostname_rfc1123"`
	Output    string `mapstructure:"output" validate:"required"`
	Server    string `mapstructure:"ipaserver" validate:"required,hostname_rfc1123"`
	Password  string `mapstructure:"ipapassword" validate:"required"`
	Principal string `mapstructure:"ipaprincipal" validate:"required"`
	Domain    string `mapstructure:"ipadomain" validate:"omitempty,hostname_rfc1123"`
	Realm     string `mapstructure:"iparealm"`
	Force     bool   `mapstructure:"force"`
	Debug     bool   `mapstructure:"debug"`
}

// decodeSettings decodes and validates opts. Failures are validation
// errors and happen before any side effect.
func decodeSettings(opts authconfig.Options) (*Settings, error) {
	s := new(Settings)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           s,
	})
	if err != nil {
		return nil, authconfig.ErrInternal("failed to build options decoder").WithCause(err)
	}
	if err := dec.Decode(map[string]interface{}(opts)); err != nil {
		return nil, authconfig.ErrValidation("invalid ipa options").
			WithCause(err).
			WithProvider(authconfig.ProviderIPA)
	}

	if err := validate.Struct(s); err != nil {
		return nil, authconfig.ErrValidation("invalid ipa options").
			WithCause(err).
			WithProvider(authconfig.ProviderIPA)
	}
	return s, nil
}
