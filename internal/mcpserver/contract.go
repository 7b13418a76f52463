package mcpserver

// BundleFormatContract describes the YAML bundle format that LLM consumers
// should follow when writing records for import.
const BundleFormatContract = `# DevFlow Bundle Format Contract

A bundle is a YAML file (` + "`" + `.yaml` + "`" + ` or ` + "`" + `.yml` + "`" + `) holding projects, notes and
code snippets. Every record in the store that came from a bundle is replaced
when the bundle changes and removed when the bundle is deleted.

## Structure

` + "```" + `yaml
projects:
  - id: devflow                  # REQUIRED – unique across the whole bundle
    title: DevFlow               # REQUIRED
    description: Personal dashboard
    status: in-progress          # planning | in-progress | completed | on-hold (default planning)
    progress: 60                 # 0-100
    techStack: [Go, React]       # counted in the tech ranking
    startDate: 2025-01-06
    links:
      - label: repo
        url: https://example.com/devflow
    createdAt: 2025-01-06T09:00:00Z
    updatedAt: 2025-01-15T18:30:00Z
notes:
  - id: standup-0115             # REQUIRED
    title: Standup
    content: Markdown text
    tags: [daily]
    projectId: devflow
    createdAt: 2025-01-15T09:15:00Z
snippets:
  - id: retry-loop               # REQUIRED
    title: Retry loop
    language: go                 # REQUIRED – counted in the tech ranking
    code: |
      for attempt := range 3 { ... }
    tags: [patterns]
    favorite: true
    createdAt: 2025-01-14
` + "```" + `

## Rules

1. **Keys are camelCase** exactly as shown. Unknown keys are ignored.
2. **` + "`" + `id` + "`" + ` is required** on every record and must be unique within the bundle.
3. **Timestamps** are ISO-8601: ` + "`" + `2025-01-15T18:30:00Z` + "`" + `, ` + "`" + `2025-01-15T18:30:00+02:00` + "`" + `,
   ` + "`" + `2025-01-15 18:30:00` + "`" + ` or ` + "`" + `2025-01-15` + "`" + `. Values without a zone are UTC. A missing or
   malformed timestamp means the record does not count toward streaks, the timeline
   or the weekly digest.
4. **` + "`" + `createdAt` + "`" + ` and ` + "`" + `updatedAt` + "`" + ` both count** as activity on their day.
5. **Labels** (techStack, tags, language) are trimmed; empty ones are dropped.
6. **Encoding** is UTF-8.
`
