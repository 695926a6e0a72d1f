package models

const (
	IndexFileName    = "index.chromem"
	ManifestFileName = "index.json"
	CollectionName   = "fitness_docs"
	PDFExtension     = ".pdf"
	ContextSeparator = "\n\n"

	RoleUser = "user"
	RoleBot  = "bot"

	// metadata keys stored next to every chunk in the index
	MetaSource  = "source"
	MetaPage    = "page"
	MetaChunkID = "chunk_id"
)

var (
	ChunkSeparators = []string{"\n\n", "\n", " ", ""}

	AnswerPromptTemplate = `You are an expert personal fitness trainer and nutritionist specializing in muscle building and strength training.

Use only the provided context to answer the question as accurately and helpfully as possible.
If the context doesn't contain enough information to fully answer the question, say so explicitly and provide what information you can.

Context:
{{.context}}

Question: {{.question}}

Answer: Provide a clear, actionable response based on the context above. Include specific recommendations when possible.`
)
