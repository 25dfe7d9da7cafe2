package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the repositories.
const (
	tableChildren       = "children"
	tableItems          = "test_items"
	tableAssessments    = "assessments"
	tableResponses      = "responses"
	tableProfiles       = "profiles"
	tableProfileDomains = "profile_domains"
	tableSnapshots      = "profile_snapshots"
	tableEvents         = "assessment_events"
)

var (
	childrenColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "date_of_birth", Type: field.TypeTime},
		{Name: "created_at", Type: field.TypeTime},
	}
	childrenTable = &schema.Table{
		Name:       tableChildren,
		Columns:    childrenColumns,
		PrimaryKey: []*schema.Column{childrenColumns[0]},
	}

	itemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "domain", Type: field.TypeString},
		{Name: "discrimination", Type: field.TypeFloat64},
		{Name: "difficulty", Type: field.TypeFloat64},
		{Name: "guessing", Type: field.TypeFloat64},
		{Name: "min_age_months", Type: field.TypeInt},
		{Name: "max_age_months", Type: field.TypeInt},
		{Name: "content", Type: field.TypeJSON},
		{Name: "tags", Type: field.TypeJSON, Nullable: true},
		{Name: "active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	itemsTable = &schema.Table{
		Name:       tableItems,
		Columns:    itemsColumns,
		PrimaryKey: []*schema.Column{itemsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "testitem_domain_active", Columns: []*schema.Column{itemsColumns[1], itemsColumns[9]}},
		},
	}

	assessmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "child_id", Type: field.TypeString},
		{Name: "domain", Type: field.TypeString},
		{Name: "theta", Type: field.TypeFloat64},
		{Name: "se", Type: field.TypeFloat64},
		{Name: "items_administered", Type: field.TypeInt, Default: 0},
		{Name: "status", Type: field.TypeString},
		{Name: "stopping_reason", Type: field.TypeString, Nullable: true},
		{Name: "raw_score", Type: field.TypeFloat64, Nullable: true},
		{Name: "percentile", Type: field.TypeInt, Nullable: true},
		{Name: "started_at", Type: field.TypeTime},
		{Name: "completed_at", Type: field.TypeTime, Nullable: true},
	}
	assessmentsTable = &schema.Table{
		Name:       tableAssessments,
		Columns:    assessmentsColumns,
		PrimaryKey: []*schema.Column{assessmentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "assessments_children_assessments",
			Columns:    []*schema.Column{assessmentsColumns[1]},
			RefColumns: []*schema.Column{childrenColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "assessment_child_id_started_at", Columns: []*schema.Column{assessmentsColumns[1], assessmentsColumns[10]}},
		},
	}

	responsesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "item_id", Type: field.TypeString},
		{Name: "response", Type: field.TypeJSON},
		{Name: "is_correct", Type: field.TypeBool},
		{Name: "reaction_time_ms", Type: field.TypeInt},
		{Name: "theta_before", Type: field.TypeFloat64},
		{Name: "theta_after", Type: field.TypeFloat64},
		{Name: "se_before", Type: field.TypeFloat64},
		{Name: "se_after", Type: field.TypeFloat64},
		{Name: "item_sequence", Type: field.TypeInt},
		{Name: "created_at", Type: field.TypeTime},
	}
	responsesTable = &schema.Table{
		Name:       tableResponses,
		Columns:    responsesColumns,
		PrimaryKey: []*schema.Column{responsesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "responses_assessments_responses",
			Columns:    []*schema.Column{responsesColumns[1]},
			RefColumns: []*schema.Column{assessmentsColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "response_assessment_id_item_sequence", Unique: true, Columns: []*schema.Column{responsesColumns[1], responsesColumns[10]}},
			{Name: "response_assessment_id_item_id", Unique: true, Columns: []*schema.Column{responsesColumns[1], responsesColumns[2]}},
		},
	}

	profilesColumns = []*schema.Column{
		{Name: "child_id", Type: field.TypeString},
		{Name: "composite_score", Type: field.TypeFloat64, Nullable: true},
		{Name: "composite_percentile", Type: field.TypeInt, Nullable: true},
		{Name: "strengths", Type: field.TypeJSON},
		{Name: "growth_areas", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	profilesTable = &schema.Table{
		Name:       tableProfiles,
		Columns:    profilesColumns,
		PrimaryKey: []*schema.Column{profilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "profiles_children_profile",
			Columns:    []*schema.Column{profilesColumns[0]},
			RefColumns: []*schema.Column{childrenColumns[0]},
			OnDelete:   schema.Cascade,
		}},
	}

	profileDomainsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "child_id", Type: field.TypeString},
		{Name: "domain", Type: field.TypeString},
		{Name: "score", Type: field.TypeFloat64},
		{Name: "percentile", Type: field.TypeInt},
		{Name: "updated_at", Type: field.TypeTime},
	}
	profileDomainsTable = &schema.Table{
		Name:       tableProfileDomains,
		Columns:    profileDomainsColumns,
		PrimaryKey: []*schema.Column{profileDomainsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{{
			Symbol:     "profile_domains_profiles_domains",
			Columns:    []*schema.Column{profileDomainsColumns[1]},
			RefColumns: []*schema.Column{profilesColumns[0]},
			OnDelete:   schema.Cascade,
		}},
		Indexes: []*schema.Index{
			{Name: "profiledomain_child_id_domain", Unique: true, Columns: []*schema.Column{profileDomainsColumns[1], profileDomainsColumns[2]}},
		},
	}

	snapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "child_id", Type: field.TypeString},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "data", Type: field.TypeJSON},
	}
	snapshotsTable = &schema.Table{
		Name:       tableSnapshots,
		Columns:    snapshotsColumns,
		PrimaryKey: []*schema.Column{snapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_child_id_sequence", Columns: []*schema.Column{snapshotsColumns[1], snapshotsColumns[2]}},
		},
	}

	eventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "kind", Type: field.TypeString},
		{Name: "assessment_id", Type: field.TypeString},
		{Name: "child_id", Type: field.TypeString},
		{Name: "domain", Type: field.TypeString},
		{Name: "item_id", Type: field.TypeString, Nullable: true},
		{Name: "item_sequence", Type: field.TypeInt, Default: 0},
		{Name: "correct", Type: field.TypeBool, Nullable: true},
		{Name: "theta", Type: field.TypeFloat64},
		{Name: "se", Type: field.TypeFloat64},
		{Name: "stopping_reason", Type: field.TypeString, Nullable: true},
	}
	eventsTable = &schema.Table{
		Name:       tableEvents,
		Columns:    eventsColumns,
		PrimaryKey: []*schema.Column{eventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "assessmentevent_assessment_id", Columns: []*schema.Column{eventsColumns[4]}},
		},
	}

	// Tables is every table managed by auto-migration.
	Tables = []*schema.Table{
		childrenTable,
		itemsTable,
		assessmentsTable,
		responsesTable,
		profilesTable,
		profileDomainsTable,
		snapshotsTable,
		eventsTable,
	}
)

func init() {
	assessmentsTable.ForeignKeys[0].RefTable = childrenTable
	responsesTable.ForeignKeys[0].RefTable = assessmentsTable
	profilesTable.ForeignKeys[0].RefTable = childrenTable
	profileDomainsTable.ForeignKeys[0].RefTable = profilesTable
}
