// Package narrativeingester provides a component that ingests narratives
// from the filesystem and the web and runs them through the consistency
// pipeline.
//
// The component consumes check requests from a JetStream stream. Each
// request names a backstory and a narrative source: inline text, a local
// file, or an HTTPS URL. Web narratives are fetched with SSRF protection,
// reduced to readable text, and converted from HTML to markdown before
// segmentation. Decision reports are published back to the report stream.
//
// When file watching is enabled the component also monitors a narratives
// directory. A changed narrative file with a backstory sidecar
// ("story.txt" paired with "story.backstory.txt") is re-checked
// automatically and its report published.
package narrativeingester
