// Package mcp exposes tag generation to editor agents over the Model
// Context Protocol.
//
// The server speaks MCP on stdio (stdout carries protocol traffic, all
// logging goes to stderr) and registers three tools:
//
//   - generate_tags: run the full generation pipeline for a project
//   - tag_run_history: list recent generation runs for a project
//   - clear_scratch: wipe a project's dependency-source scratch directory
//
// Each project path gets one long-lived generator so the non-blocking run
// lock actually serializes concurrent tool calls against the same scratch
// directory.
package mcp
