// ABOUTME: SQLite schema for the conversation store and chunk vector store
// ABOUTME: Creates all tables and indexes on first open
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Conversations (one row per conversation, never deleted automatically)
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    last_activity DATETIME NOT NULL
);

-- Ordered messages within a conversation; seq preserves insertion order
CREATE TABLE IF NOT EXISTS messages (
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (conversation_id, seq)
);

-- Document chunks with embedding vectors, namespaced by document directory
CREATE TABLE IF NOT EXISTS chunks (
    namespace TEXT NOT NULL,
    source_path TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    text TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    vector BLOB NOT NULL,
    updated_at DATETIME NOT NULL,
    PRIMARY KEY (namespace, source_path, chunk_index)
);

-- Per-namespace index metadata; embed_model guards against model mismatch
CREATE TABLE IF NOT EXISTS namespaces (
    namespace TEXT PRIMARY KEY,
    embed_model TEXT NOT NULL,
    indexed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_activity ON conversations(last_activity);
CREATE INDEX IF NOT EXISTS idx_chunks_namespace ON chunks(namespace);
CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(namespace, source_path);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
