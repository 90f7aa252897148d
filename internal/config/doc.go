// Package config loads bake settings.
//
// Values are layered: `default` struct tags, then an optional bake.yaml (or an
// explicit file), then environment variables prefixed with BAKE_ where dots
// become underscores (BAKE_TEMPLATES_FOLDER overrides templates.folder). A
// .env file in the config directory is loaded into the environment first.
package config
