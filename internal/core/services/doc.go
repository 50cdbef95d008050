// Package services holds the lexrag use cases behind the driving ports.
//
// Question answering is split into three parts that each own one step:
// Indexer embeds chunks into index entries, Retriever embeds a query and
// searches the index, Synthesizer builds the grounding prompt and asks the
// generation model. RAGService composes them with the loaders, the chunker,
// the vector index and the optional index store, and SettingsService manages
// configuration.
package services
