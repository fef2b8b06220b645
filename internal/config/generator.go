package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Generator writes a Config back out as a Lua config file.
type Generator struct {
	indent string
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  "}
}

// Generate renders cfg as a tisdk config file. Parsing the result yields
// an equal Config.
func (g *Generator) Generate(cfg *Config) string {
	var buf bytes.Buffer

	buf.WriteString("-- tisdk configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(time.Now().Format(time.RFC3339))
	buf.WriteString("\n--\n")
	buf.WriteString("-- The read-only 'platform' table describes this machine, e.g.\n")
	buf.WriteString("--   platform.os_name, platform.bits, platform.when(cond, value)\n\n")

	buf.WriteString(luaGlobal + " = {\n")

	g.open(&buf, "sdk")
	g.field(&buf, "install_location", g.quoteLuaString(cfg.SDK.InstallLocation))
	g.list(&buf, "search_paths", cfg.SDK.SearchPaths)
	g.close(&buf)

	if cfg.Modules.InstallLocation != "" {
		g.open(&buf, "modules")
		g.field(&buf, "install_location", g.quoteLuaString(cfg.Modules.InstallLocation))
		g.close(&buf)
	}

	g.open(&buf, "network")
	g.field(&buf, "releases_url", g.quoteLuaString(cfg.Network.ReleasesURL))
	g.field(&buf, "branches_url", g.quoteLuaString(cfg.Network.BranchesURL))
	g.field(&buf, "builds_url", g.quoteLuaString(cfg.Network.BuildsURL))
	g.field(&buf, "timeout", strconv.FormatFloat(cfg.Network.Timeout.Seconds(), 'f', -1, 64))
	g.field(&buf, "user_agent", g.quoteLuaString(cfg.Network.UserAgent))
	g.close(&buf)

	g.open(&buf, "downloads")
	g.field(&buf, "dir", g.quoteLuaString(cfg.Downloads.Dir))
	g.close(&buf)

	g.open(&buf, "locks")
	g.field(&buf, "dir", g.quoteLuaString(cfg.Locks.Dir))
	g.close(&buf)

	buf.WriteString("}\n")
	return buf.String()
}

func (g *Generator) open(buf *bytes.Buffer, name string) {
	fmt.Fprintf(buf, "%s%s = {\n", g.indent, name)
}

func (g *Generator) close(buf *bytes.Buffer) {
	buf.WriteString(g.indent + "},\n")
}

func (g *Generator) field(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s%s = %s,\n", strings.Repeat(g.indent, 2), key, value)
}

func (g *Generator) list(buf *bytes.Buffer, key string, values []string) {
	inner := strings.Repeat(g.indent, 2)
	fmt.Fprintf(buf, "%s%s = {\n", inner, key)
	for _, v := range values {
		fmt.Fprintf(buf, "%s%s%s,\n", inner, g.indent, g.quoteLuaString(v))
	}
	buf.WriteString(inner + "},\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
