// Copyright (c) 2026 The WorkMesh developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides the journaled key/value world state backing the
// marketplace builtins. Reads fall through to the underlying kv store,
// writes stay in an in-memory journal until Commit. Checkpoints over the
// journal give every protocol operation all-or-nothing semantics.
package state
