// Package ragops provides the core vocabulary for the RagOps agent runtime:
// conversation messages and histories, tool-call and tool-declaration shapes,
// the LLM provider contract, and the argument/result codec shared by the
// turn controllers in the agent package.
//
// The runtime drives an external language-model provider through repeated
// generate / tool-execute cycles until a final textual answer is produced.
// See the agent package for the orchestration loops, the tool package for
// registration and dispatch, and the mcp package for remote tool servers.
package ragops
