// Package authconfig provides external authentication provisioning for an
// HTTP server running in a disposable provisioning container.
//
// # Overview
//
// A provider joins the host to an identity backend (for example FreeIPA),
// wires Kerberos, PAM and SSSD, and records the result as a config map: a
// document listing the auth outcome and the captured content of every file
// the runtime image needs. An image build later extracts single files from
// the config map with the export tool.
//
// # Lifecycle
//
// The Manager runs a provider through one configuration:
//
//  1. The output path must resolve under the safe directory.
//  2. A configured host is unconfigured first when force is set.
//  3. A host that is still configured fails with an already_configured error.
//  4. Outside the provisioning container (AUTH_CONFIG_DIRECTORY unset) the
//     run fails before any destructive step.
//  5. The provider's Configure runs its command sequence and saves the map.
//
// The existence of the provider's sentinel file (the SSSD config) is the only
// record of being configured. There is no rollback; recovery is Unconfigure
// followed by a new configuration.
//
// # Usage
//
//	m := authconfig.NewManager()
//	p, err := m.Provider(authconfig.ProviderIPA)
//	if err != nil {
//	    return err
//	}
//	err = m.RunConfigure(ctx, p, authconfig.Options{
//	    "host":        "web.example.com",
//	    "output":      "/tmp/map.yaml",
//	    "ipaserver":   "ipa.example.com",
//	    "ipapassword": password,
//	})
//
// Exporting one file:
//
//	err := authconfig.NewExporter(authconfig.DefaultSafeDir).Export(ctx, authconfig.Options{
//	    "input":  "/tmp/map.yaml",
//	    "file":   "krb5.conf",
//	    "output": "/tmp/out/krb5.conf",
//	})
//
// # Extension
//
// New providers implement Provider, usually by embedding Base, and register
// a factory via authconfig.Register() from an init() function.
package authconfig
