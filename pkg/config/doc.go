/*
Package config assembles the drover agent configuration.

Configuration is layered: built-in defaults, then an optional YAML
file, then DROVER_* environment overrides, validated once at startup.
The resulting Config value is passed explicitly to every component;
nothing in drover reads ambient configuration after boot.
*/
package config
