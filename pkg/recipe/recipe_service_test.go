package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"recipe-vault/domain"
	"recipe-vault/entities"
	"recipe-vault/internal/testutil"
	"recipe-vault/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (RecipeService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewRecipeService(NewRecipeRepository(db), utils.NewValidator(), zaptest.NewLogger(t))
	return svc, db
}

func fields(kv map[string]string) domain.RecipeFields {
	out := make(domain.RecipeFields, len(kv))
	for k, v := range kv {
		out[k] = json.RawMessage(v)
	}
	return out
}

func recipePayload(title string) domain.RecipeFields {
	return fields(map[string]string{
		"title":           `"` + title + `"`,
		"description":     `"Thin crust, long proof"`,
		"format_version":  `{"major": 1, "minor": 2, "compatibility_hash": "AB12-CD34"}`,
		"recipe_metadata": `{"recipe_code": "1234567-89ABC", "resting_times": [{"value": 30, "unit_id": "B001", "resting_definition_id": "R001"}], "cuisine": "italian"}`,
		"ingredients":     `[{"type": "raw_material", "ingredient_id": "00A1B2C", "internal_id": "C001", "quantity": {"value": 250, "unit_id": "B002"}}, {"type": "sub_recipe", "internal_id": "C002", "quantity": {"value": 1, "unit_id": "B003"}}]`,
		"instructions":    `{"steps": [{"step_id": "S001", "components": [{"internal_id": "C001", "quantity": {"value": 250, "unit_id": "B002"}}], "ccp_checkpoints": ["M001"]}]}`,
		"nutrition":       `{"values": [{"nutrition_id": "H001", "per_100g": 120.5, "unit_id": "B004"}], "base_units": ["per_100g"]}`,
		"serving_info":    `{"count": 4, "container": {"id": "P001"}}`,
	})
}

func createRecipe(t *testing.T, svc RecipeService, title string, authorID uuid.UUID) domain.RecipePublic {
	t.Helper()
	recipe, err := svc.CreateRecipe(context.Background(), recipePayload(title), authorID.String())
	require.NoError(t, err)
	return recipe
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr), "expected *domain.ValidationError, got %T", err)
	return verr.Fields
}

func TestCreateRecipe_StartsLineage(t *testing.T) {
	svc, db := newTestService(t)
	author := uuid.New()

	recipe := createRecipe(t, svc, "Margherita", author)

	assert.Equal(t, "Margherita", recipe.Title)
	assert.Equal(t, author, recipe.AuthorID)
	assert.Equal(t, 1, recipe.VersionNumber)
	assert.Equal(t, 0, recipe.SaveCount)
	assert.Nil(t, recipe.OriginalRecipeID)
	assert.Nil(t, recipe.PreviousVersionID)
	assert.JSONEq(t, `null`, string(recipe.Validation))
	assert.JSONEq(t, `{"recipe_code": "1234567-89ABC", "resting_times": [{"value": 30, "unit_id": "B001", "resting_definition_id": "R001"}], "cuisine": "italian"}`, string(recipe.RecipeMetadata))

	var stored entities.Recipe
	require.NoError(t, db.First(&stored, "id = ?", recipe.ID).Error)
	assert.Equal(t, recipe.ID, stored.LineageID)
}

func TestCreateRecipe_MissingRequiredFields(t *testing.T) {
	svc, _ := newTestService(t)

	payload := recipePayload("Margherita")
	delete(payload, "serving_info")
	delete(payload, "title")

	_, err := svc.CreateRecipe(context.Background(), payload, uuid.NewString())

	problems := validationFields(t, err)
	assert.Contains(t, problems, "serving_info")
	assert.Contains(t, problems, "title")
}

func TestCreateRecipe_ValidationPaths(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{
			name:  "bad unit inside ingredient",
			key:   "ingredients",
			value: `[{"type": "sub_recipe", "internal_id": "C001", "quantity": {"value": 1, "unit_id": "X001"}}]`,
			want:  "ingredients[0].quantity.unit_id",
		},
		{
			name:  "raw material without ingredient code",
			key:   "ingredients",
			value: `[{"type": "sub_recipe", "internal_id": "C001", "quantity": {"value": 1, "unit_id": "B001"}}, {"type": "raw_material", "internal_id": "C002", "quantity": {"value": 1, "unit_id": "B001"}}]`,
			want:  "ingredients[1].ingredient_id",
		},
		{
			name:  "empty ingredient list",
			key:   "ingredients",
			value: `[]`,
			want:  "ingredients",
		},
		{
			name:  "nutrition value without amount",
			key:   "nutrition",
			value: `{"values": [{"nutrition_id": "H001", "unit_id": "B001"}]}`,
			want:  "nutrition.values[0].per_serving",
		},
		{
			name:  "recipe code format",
			key:   "recipe_metadata",
			value: `{"recipe_code": "0000000-00000"}`,
			want:  "recipe_metadata.recipe_code",
		},
		{
			name:  "unknown key in strict block",
			key:   "serving_info",
			value: `{"count": 2, "plates": 3}`,
			want:  "serving_info",
		},
		{
			name:  "serving count",
			key:   "serving_info",
			value: `{"count": 0}`,
			want:  "serving_info.count",
		},
		{
			name:  "image urn",
			key:   "visual_references",
			value: `{"system": "urn:recipeimg:v1", "images": [{"urn": "urn:recipeimg:md5-abc"}]}`,
			want:  "visual_references.images[0].urn",
		},
		{
			name:  "signature algorithm",
			key:   "validation",
			value: `{"digital_signature": {"algorithm": "DSA", "signature": "c2ln"}}`,
			want:  "validation.digital_signature.algorithm",
		},
		{
			name:  "blank title",
			key:   "title",
			value: `"   "`,
			want:  "title",
		},
		{
			name:  "read-only field",
			key:   "save_count",
			value: `10`,
			want:  "save_count",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)

			payload := recipePayload("Margherita")
			payload[tt.key] = json.RawMessage(tt.value)

			_, err := svc.CreateRecipe(context.Background(), payload, uuid.NewString())

			problems := validationFields(t, err)
			assert.Contains(t, problems, tt.want)
		})
	}
}

func TestDeriveVersion_OverlaysChangedFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author, editor, fan := uuid.New(), uuid.New(), uuid.New()

	base := createRecipe(t, svc, "Y", author)
	_, err := svc.SaveRecipe(ctx, base.ID.String(), fan.String())
	require.NoError(t, err)

	next, err := svc.DeriveVersion(ctx, base.ID.String(), fields(map[string]string{"title": `"X"`}), editor.String())
	require.NoError(t, err)

	assert.NotEqual(t, base.ID, next.ID)
	assert.Equal(t, "X", next.Title)
	assert.Equal(t, 2, next.VersionNumber)
	assert.Equal(t, editor, next.AuthorID)
	assert.Equal(t, 0, next.SaveCount)
	require.NotNil(t, next.PreviousVersionID)
	assert.Equal(t, base.ID, *next.PreviousVersionID)
	require.NotNil(t, next.OriginalRecipeID)
	assert.Equal(t, base.ID, *next.OriginalRecipeID)

	assert.Equal(t, base.Description, next.Description)
	assert.Equal(t, base.Private, next.Private)
	assert.JSONEq(t, string(base.FormatVersion), string(next.FormatVersion))
	assert.JSONEq(t, string(base.RecipeMetadata), string(next.RecipeMetadata))
	assert.JSONEq(t, string(base.Ingredients), string(next.Ingredients))
	assert.JSONEq(t, string(base.Instructions), string(next.Instructions))
	assert.JSONEq(t, string(base.Nutrition), string(next.Nutrition))
	assert.JSONEq(t, string(base.ServingInfo), string(next.ServingInfo))

	reloaded, err := svc.GetRecipe(ctx, base.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Y", reloaded.Title)
	assert.Equal(t, 1, reloaded.VersionNumber)
	assert.Equal(t, 1, reloaded.SaveCount)
	assert.Equal(t, author, reloaded.AuthorID)
}

func TestDeriveVersion_ChainAndLineage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	a := createRecipe(t, svc, "v1", user)
	b, err := svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"v2"`}), user.String())
	require.NoError(t, err)
	c, err := svc.DeriveVersion(ctx, b.ID.String(), fields(map[string]string{"title": `"v3"`}), user.String())
	require.NoError(t, err)

	assert.Equal(t, 2, b.VersionNumber)
	assert.Equal(t, a.ID, *b.PreviousVersionID)
	assert.Equal(t, a.ID, *b.OriginalRecipeID)
	assert.Equal(t, 3, c.VersionNumber)
	assert.Equal(t, b.ID, *c.PreviousVersionID)
	assert.Equal(t, a.ID, *c.OriginalRecipeID)

	for _, member := range []uuid.UUID{a.ID, b.ID, c.ID} {
		lineage, err := svc.ListLineage(ctx, member.String(), domain.Pagination{Skip: 0, Limit: 10})
		require.NoError(t, err)

		assert.Equal(t, int64(3), lineage.Count)
		require.Len(t, lineage.Data, 3)
		assert.Equal(t, c.ID, lineage.Data[0].ID)
		assert.Equal(t, b.ID, lineage.Data[1].ID)
		assert.Equal(t, a.ID, lineage.Data[2].ID)
	}

	page, err := svc.ListLineage(ctx, c.ID.String(), domain.Pagination{Skip: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	require.Len(t, page.Data, 1)
	assert.Equal(t, b.ID, page.Data[0].ID)

	empty, err := svc.ListLineage(ctx, c.ID.String(), domain.Pagination{Skip: 10, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(3), empty.Count)
	assert.Empty(t, empty.Data)
}

func TestDeriveVersion_VersionNumbersAreContiguous(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	head := createRecipe(t, svc, "v1", user)
	for i := 0; i < 5; i++ {
		next, err := svc.DeriveVersion(ctx, head.ID.String(), fields(map[string]string{"description": `"tweak"`}), user.String())
		require.NoError(t, err)
		head = next
	}

	lineage, err := svc.ListLineage(ctx, head.ID.String(), domain.Pagination{Skip: 0, Limit: 50})
	require.NoError(t, err)
	require.Len(t, lineage.Data, 6)
	for i, recipe := range lineage.Data {
		assert.Equal(t, 6-i, recipe.VersionNumber)
	}
}

func TestDeriveVersion_StaleBaseConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	a := createRecipe(t, svc, "v1", user)
	_, err := svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"first"`}), user.String())
	require.NoError(t, err)

	_, err = svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"second"`}), user.String())
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.ErrorIs(t, err, domain.ErrConflict)

	lineage, err := svc.ListLineage(ctx, a.ID.String(), domain.Pagination{Skip: 0, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), lineage.Count)
}

func TestDeriveVersion_DeletedMiddleVersionDoesNotReopenSlot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	a := createRecipe(t, svc, "v1", user)
	b, err := svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"v2"`}), user.String())
	require.NoError(t, err)
	c, err := svc.DeriveVersion(ctx, b.ID.String(), fields(map[string]string{"title": `"v3"`}), user.String())
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRecipe(ctx, b.ID.String(), user.String()))

	_, err = svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"fork"`}), user.String())
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	d, err := svc.DeriveVersion(ctx, c.ID.String(), fields(map[string]string{"title": `"v4"`}), user.String())
	require.NoError(t, err)
	assert.Equal(t, 4, d.VersionNumber)
	assert.Equal(t, c.ID, *d.PreviousVersionID)

	lineage, err := svc.ListLineage(ctx, a.ID.String(), domain.Pagination{Skip: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, lineage.Data, 3)
	assert.Equal(t, d.ID, lineage.Data[0].ID)
	assert.Equal(t, c.ID, lineage.Data[1].ID)
	assert.Equal(t, a.ID, lineage.Data[2].ID)
}

// staleHeadRepository claims the lineage head is always at version latest,
// leaving the unique index as the only guard against a duplicate version.
type staleHeadRepository struct {
	RecipeRepository
	latest int
}

func (r *staleHeadRepository) WithTransaction(ctx context.Context, fn func(repo RecipeRepository) error) error {
	return r.RecipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		return fn(&staleHeadRepository{RecipeRepository: repo, latest: r.latest})
	})
}

func (r *staleHeadRepository) LatestVersionNumber(context.Context, uuid.UUID) (int, error) {
	return r.latest, nil
}

func TestDeriveVersion_UniqueIndexRejectsDuplicateVersion(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	user := uuid.New()

	plain := NewRecipeService(NewRecipeRepository(db), utils.NewValidator(), zaptest.NewLogger(t))
	a := createRecipe(t, plain, "v1", user)
	_, err := plain.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"v2"`}), user.String())
	require.NoError(t, err)

	repo := &staleHeadRepository{RecipeRepository: NewRecipeRepository(db), latest: 1}
	svc := NewRecipeService(repo, utils.NewValidator(), zaptest.NewLogger(t))

	_, err = svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"racer"`}), user.String())
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var versions int64
	require.NoError(t, db.Model(&entities.Recipe{}).Where("lineage_id = ?", a.ID).Count(&versions).Error)
	assert.Equal(t, int64(2), versions)
}

func TestDeriveVersion_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	base := createRecipe(t, svc, "v1", user)

	t.Run("missing base", func(t *testing.T) {
		_, err := svc.DeriveVersion(ctx, uuid.NewString(), fields(map[string]string{"title": `"x"`}), user.String())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := svc.DeriveVersion(ctx, "not-a-uuid", fields(map[string]string{"title": `"x"`}), user.String())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := svc.DeriveVersion(ctx, base.ID.String(), fields(map[string]string{"flavour": `"umami"`}), user.String())
		assert.Contains(t, validationFields(t, err), "flavour")
	})

	t.Run("lineage pointers are not writable", func(t *testing.T) {
		_, err := svc.DeriveVersion(ctx, base.ID.String(), fields(map[string]string{"version_number": `7`}), user.String())
		assert.Contains(t, validationFields(t, err), "version_number")
	})

	t.Run("null required block", func(t *testing.T) {
		_, err := svc.DeriveVersion(ctx, base.ID.String(), fields(map[string]string{"nutrition": `null`}), user.String())
		assert.Contains(t, validationFields(t, err), "nutrition")
	})

	lineage, err := svc.ListLineage(ctx, base.ID.String(), domain.Pagination{Skip: 0, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), lineage.Count)
}

func TestDeriveVersion_NullClearsOptionalBlock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	payload := recipePayload("v1")
	payload["visual_references"] = json.RawMessage(`{"system": "urn:recipeimg:v1", "images": [{"urn": "urn:recipeimg:sha3-` + sha3Hex + `"}]}`)
	base, err := svc.CreateRecipe(ctx, payload, user.String())
	require.NoError(t, err)
	assert.NotEqual(t, "null", string(base.VisualReferences))

	next, err := svc.DeriveVersion(ctx, base.ID.String(), fields(map[string]string{"visual_references": `null`}), user.String())
	require.NoError(t, err)
	assert.Equal(t, "null", string(next.VisualReferences))
}

const sha3Hex = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"

func TestSaveAndUnsave(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	author, fan := uuid.New(), uuid.New()
	recipe := createRecipe(t, svc, "Margherita", author)

	saved, err := svc.SaveRecipe(ctx, recipe.ID.String(), fan.String())
	require.NoError(t, err)
	assert.Equal(t, 1, saved.SaveCount)

	_, err = svc.SaveRecipe(ctx, recipe.ID.String(), fan.String())
	assert.ErrorIs(t, err, domain.ErrRecipeAlreadySaved)

	current, err := svc.GetRecipe(ctx, recipe.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, current.SaveCount)

	list, err := svc.ListSavedRecipes(ctx, fan.String(), domain.Pagination{Skip: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, recipe.ID, list.Data[0].ID)

	unsaved, err := svc.UnsaveRecipe(ctx, recipe.ID.String(), fan.String())
	require.NoError(t, err)
	assert.Equal(t, 0, unsaved.SaveCount)

	_, err = svc.UnsaveRecipe(ctx, recipe.ID.String(), fan.String())
	assert.ErrorIs(t, err, domain.ErrSavedRecipeNotFound)

	_, err = svc.SaveRecipe(ctx, uuid.NewString(), fan.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestUnsave_CounterNeverNegative(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	fan := uuid.New()
	recipe := createRecipe(t, svc, "Margherita", uuid.New())

	// Relation present while the cached counter already reads zero.
	require.NoError(t, db.Create(&entities.UserRecipeSave{UserID: fan, RecipeID: recipe.ID}).Error)

	unsaved, err := svc.UnsaveRecipe(ctx, recipe.ID.String(), fan.String())
	require.NoError(t, err)
	assert.Equal(t, 0, unsaved.SaveCount)
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades to save relations", func(t *testing.T) {
		svc, db := newTestService(t)
		author := uuid.New()
		recipe := createRecipe(t, svc, "Margherita", author)
		_, err := svc.SaveRecipe(ctx, recipe.ID.String(), uuid.NewString())
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRecipe(ctx, recipe.ID.String(), author.String()))

		var saves int64
		require.NoError(t, db.Model(&entities.UserRecipeSave{}).Where("recipe_id = ?", recipe.ID).Count(&saves).Error)
		assert.Zero(t, saves)

		_, err = svc.GetRecipe(ctx, recipe.ID.String())
		assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	})

	t.Run("only the author", func(t *testing.T) {
		svc, _ := newTestService(t)
		recipe := createRecipe(t, svc, "Margherita", uuid.New())

		err := svc.DeleteRecipe(ctx, recipe.ID.String(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("missing recipe", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.DeleteRecipe(ctx, uuid.NewString(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("root with versions", func(t *testing.T) {
		svc, _ := newTestService(t)
		author := uuid.New()
		root := createRecipe(t, svc, "v1", author)
		_, err := svc.DeriveVersion(ctx, root.ID.String(), fields(map[string]string{"title": `"v2"`}), author.String())
		require.NoError(t, err)

		err = svc.DeleteRecipe(ctx, root.ID.String(), author.String())
		assert.ErrorIs(t, err, domain.ErrRecipeHasVersions)
	})

	t.Run("middle version leaves the rest of the lineage", func(t *testing.T) {
		svc, db := newTestService(t)
		author := uuid.New()
		fan := uuid.New()
		a := createRecipe(t, svc, "v1", author)
		b, err := svc.DeriveVersion(ctx, a.ID.String(), fields(map[string]string{"title": `"v2"`}), author.String())
		require.NoError(t, err)
		c, err := svc.DeriveVersion(ctx, b.ID.String(), fields(map[string]string{"title": `"v3"`}), author.String())
		require.NoError(t, err)
		_, err = svc.SaveRecipe(ctx, a.ID.String(), fan.String())
		require.NoError(t, err)
		_, err = svc.SaveRecipe(ctx, b.ID.String(), fan.String())
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRecipe(ctx, b.ID.String(), author.String()))

		lineage, err := svc.ListLineage(ctx, a.ID.String(), domain.Pagination{Skip: 0, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), lineage.Count)
		assert.Equal(t, c.ID, lineage.Data[0].ID)
		assert.Nil(t, lineage.Data[0].PreviousVersionID)
		assert.Equal(t, a.ID, *lineage.Data[0].OriginalRecipeID)
		assert.Equal(t, 1, lineage.Data[1].SaveCount)

		var saves int64
		require.NoError(t, db.Model(&entities.UserRecipeSave{}).Where("user_id = ?", fan).Count(&saves).Error)
		assert.Equal(t, int64(1), saves)
	})
}

func TestListAndSearchRecipes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	createRecipe(t, svc, "Margherita Pizza", alice)
	createRecipe(t, svc, "Sourdough Loaf", alice)

	payload := recipePayload("Secret Pizza")
	payload["private"] = json.RawMessage(`true`)
	_, err := svc.CreateRecipe(ctx, payload, alice.String())
	require.NoError(t, err)

	page := domain.Pagination{Skip: 0, Limit: 10}

	all, err := svc.ListRecipes(ctx, domain.RecipeListRequest{Pagination: page}, bob.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Count)

	own, err := svc.ListRecipes(ctx, domain.RecipeListRequest{Pagination: page, Sort: domain.RecipeSortSaveCount}, alice.String())
	require.NoError(t, err)
	assert.Equal(t, int64(3), own.Count)

	found, err := svc.SearchRecipes(ctx, domain.RecipeSearchRequest{Pagination: page, Query: "PIZZA"}, bob.String())
	require.NoError(t, err)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Margherita Pizza", found.Data[0].Title)

	literal, err := svc.SearchRecipes(ctx, domain.RecipeSearchRequest{Pagination: page, Query: "%"}, bob.String())
	require.NoError(t, err)
	assert.Empty(t, literal.Data)

	authored, err := svc.ListAuthoredRecipes(ctx, alice.String(), page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), authored.Count)
}

func TestReconcileSaveCounts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	recipe := createRecipe(t, svc, "Margherita", uuid.New())
	other := createRecipe(t, svc, "Focaccia", uuid.New())
	_, err := svc.SaveRecipe(ctx, recipe.ID.String(), uuid.NewString())
	require.NoError(t, err)

	require.NoError(t, db.Model(&entities.Recipe{}).Where("id = ?", recipe.ID).Update("save_count", 7).Error)

	repaired, err := svc.ReconcileSaveCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	fixed, err := svc.GetRecipe(ctx, recipe.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed.SaveCount)

	untouched, err := svc.GetRecipe(ctx, other.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, untouched.SaveCount)

	repaired, err = svc.ReconcileSaveCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

// interleavingRepository runs afterFind between the drift scan and the
// repairs, standing in for a save that commits while the job is running.
type interleavingRepository struct {
	RecipeRepository
	afterFind func()
}

func (r *interleavingRepository) FindSaveCountDrifts(ctx context.Context) ([]SaveCountDrift, error) {
	drifts, err := r.RecipeRepository.FindSaveCountDrifts(ctx)
	if err == nil && r.afterFind != nil {
		r.afterFind()
	}
	return drifts, err
}

func TestReconcileSaveCounts_SaveDuringRepairIsKept(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	plain := NewRecipeService(NewRecipeRepository(db), utils.NewValidator(), zaptest.NewLogger(t))
	recipe := createRecipe(t, plain, "Margherita", uuid.New())
	_, err := plain.SaveRecipe(ctx, recipe.ID.String(), uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, db.Model(&entities.Recipe{}).Where("id = ?", recipe.ID).Update("save_count", 7).Error)

	repo := &interleavingRepository{
		RecipeRepository: NewRecipeRepository(db),
		afterFind: func() {
			_, err := plain.SaveRecipe(ctx, recipe.ID.String(), uuid.NewString())
			require.NoError(t, err)
		},
	}
	svc := NewRecipeService(repo, utils.NewValidator(), zaptest.NewLogger(t))

	repaired, err := svc.ReconcileSaveCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	fixed, err := svc.GetRecipe(ctx, recipe.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, fixed.SaveCount)
}

func TestReconcileSaveCounts_SkipsRecipesFixedMeanwhile(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	plain := NewRecipeService(NewRecipeRepository(db), utils.NewValidator(), zaptest.NewLogger(t))
	recipe := createRecipe(t, plain, "Margherita", uuid.New())
	require.NoError(t, db.Model(&entities.Recipe{}).Where("id = ?", recipe.ID).Update("save_count", 3).Error)

	repo := &interleavingRepository{
		RecipeRepository: NewRecipeRepository(db),
		afterFind: func() {
			require.NoError(t, db.Model(&entities.Recipe{}).Where("id = ?", recipe.ID).Update("save_count", 0).Error)
		},
	}
	svc := NewRecipeService(repo, utils.NewValidator(), zaptest.NewLogger(t))

	repaired, err := svc.ReconcileSaveCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
