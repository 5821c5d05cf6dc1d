package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Flows with graph content stored as JSONB documents
			CREATE TABLE flows (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				is_published BOOLEAN NOT NULL DEFAULT FALSE,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_flows_is_published ON flows(is_published);
			CREATE INDEX idx_flows_created_at ON flows(created_at);
			CREATE INDEX idx_flows_deleted_at ON flows(deleted_at);
		`,
		2: `
			-- Campaign attachments: a flow with rows here is usage locked
			CREATE TABLE campaign_flows (
				flow_id UUID NOT NULL REFERENCES flows(id) ON DELETE CASCADE,
				campaign_id VARCHAR(255) NOT NULL,
				campaign_name VARCHAR(255) NOT NULL,
				campaign_status VARCHAR(50) NOT NULL,
				created_by VARCHAR(255),
				scheduled_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (flow_id, campaign_id)
			);

			CREATE INDEX idx_campaign_flows_flow_id ON campaign_flows(flow_id);
			CREATE INDEX idx_campaign_flows_campaign_id ON campaign_flows(campaign_id);
		`,
	}
}
