package authconfigtest

import (
	"os"
	"time"

	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
	"github.com/jcmturner/gokrb5/v8/keytab"
)

// WriteKeytab writes a keytab holding one AES256 key for principal in
// realm, the way ipa-getkeytab would.
func WriteKeytab(path, principal, realm string) error {
	kt := keytab.New()
	if err := kt.AddEntry(principal, realm, "secret", time.Now(), 1, etypeID.AES256_CTS_HMAC_SHA1_96); err != nil {
		return err
	}
	data, err := kt.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
