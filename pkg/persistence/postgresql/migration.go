package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Serialized workflow documents keyed by save key
			CREATE TABLE workflow_snapshots (
				key VARCHAR(128) PRIMARY KEY,
				payload BYTEA NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_workflow_snapshots_updated_at ON workflow_snapshots(updated_at);
		`,
	}
}
