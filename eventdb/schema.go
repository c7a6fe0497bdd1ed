// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// entry mirrors the ledger journal. seq is the journal position, so
// the row set of a healthy index is exactly the journal prefix [0, head).
const entryTableSchema = `
create table if not exists entry (
	seq integer primary key,
	ts integer not null,
	kind integer not null,
	account blob(20) not null,
	stakeIndex integer not null,
	amount text not null,
	reward text not null,
	duration integer not null,
	rate integer not null
);

CREATE INDEX if not exists entryTsIndex on entry(ts);
CREATE INDEX if not exists entryKindIndex on entry(kind);
CREATE INDEX if not exists entryAccountIndex on entry(account);
`
