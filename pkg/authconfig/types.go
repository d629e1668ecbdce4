package authconfig

import "os"

// Capability represents a feature supported by a provider.
type Capability string

const (
	// CapabilityConfigure indicates support for joining the host to a backend.
	CapabilityConfigure Capability = "configure"
	// CapabilityUnconfigure indicates support for leaving the backend again.
	CapabilityUnconfigure Capability = "unconfigure"
	// CapabilityVerify indicates the provider contributes post-configuration checks.
	CapabilityVerify Capability = "verify"
)

// ProviderName identifies an authentication provider.
type ProviderName string

const (
	ProviderIPA ProviderName = "ipa"
)

// AuthInfo is the auth outcome a provider records in its config map.
type AuthInfo struct {
	// Type is the auth type, e.g. "ipa".
	Type string

	// Configuration is the configuration mode, e.g. "external".
	Configuration string
}

// Well-known paths and names shared by providers.
const (
	// ContextMarkerEnv is set only inside the provisioning container.
	ContextMarkerEnv = "AUTH_CONFIG_DIRECTORY"

	// ApacheUser owns the HTTP keytab.
	ApacheUser = "apache"

	HTTPKeytab         = "/etc/http.keytab"
	KerberosConfigFile = "/etc/krb5.conf"
	PAMConfig          = "/etc/pam.d/httpd-auth"
	SSSDConfig         = "/etc/sssd/sssd.conf"

	// TimestampFormat is used for backup suffixes.
	TimestampFormat = "20060102_150405"
)

// InProvisioningContext reports whether the context marker is set to a
// non-empty value.
func InProvisioningContext() bool {
	return os.Getenv(ContextMarkerEnv) != ""
}

// LDAPAttributes maps LDAP user attributes to the request environment
// variables the HTTP server exposes for them.
var LDAPAttributes = map[string]string{
	"mail":        "REMOTE_USER_EMAIL",
	"givenname":   "REMOTE_USER_FIRSTNAME",
	"sn":          "REMOTE_USER_LASTNAME",
	"displayname": "REMOTE_USER_FULLNAME",
	"domainname":  "REMOTE_USER_DOMAIN",
}

// LDAPAttributeNames returns the LDAP attribute names in a stable order.
func LDAPAttributeNames() []string {
	return []string{"mail", "givenname", "sn", "displayname", "domainname"}
}
