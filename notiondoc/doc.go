/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package notiondoc reads and mutates one fixed shared document in a
Notion-style block store.

The document is a flat ordered sequence of blocks. Reading produces a
Snapshot of Units, one per block, with the block content flattened to plain
text so it can be embedded in a model prompt. Mutation supports appending
paragraphs, replacing a block's text, and deleting a block.

Snapshots are point-in-time reads with no consistency token: a snapshot may
be stale by the time a mutation lands. The store gives no transactional
guarantee and callers must tolerate lost updates under concurrent editing.
*/
package notiondoc
