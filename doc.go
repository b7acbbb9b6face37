/*
	Project: Shule - school records registry
	Target: primary & secondary schools (single office workstation)
*/
package shule

/*
Layout:
	- core: config, validation, errors & the domain (users, school registry, shop demo)
	- storage: gateways saving the registries (flat files or SQLite) & S3 backups
	- services: logging, metrics & XLSX reports
	- apps/admin: operator CLI

TODO: flatfile: persist enrollment & hire dates once the legacy readers are retired
*/
