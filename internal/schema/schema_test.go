package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSchemaRegistersBuiltins(t *testing.T) {
	s := NewSchema("")
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		require.NotNil(t, s.Types[name], "builtin scalar %s missing", name)
		require.Equal(t, TypeKindScalar, s.Types[name].Kind)
		require.NotNil(t, s.Types[name].Serialize)
	}
	for _, name := range []string{"skip", "include", "deprecated"} {
		require.NotNil(t, s.Directives[name], "builtin directive %s missing", name)
	}
	require.Nil(t, s.Directives["defer"])
	require.Nil(t, s.Directives["stream"])
	require.False(t, s.IncrementalEnabled())
}

func TestEnableIncrementalRegistersDirectives(t *testing.T) {
	s := NewSchema("").EnableIncremental()
	require.True(t, s.IncrementalEnabled())

	deferDef := s.Directives["defer"]
	require.NotNil(t, deferDef)
	require.Equal(t, true, deferDef.Argument("if").DefaultValue)
	require.NotNil(t, deferDef.Argument("label"))

	stream := s.Directives["stream"]
	require.NotNil(t, stream)
	require.Equal(t, true, stream.Argument("if").DefaultValue)
	require.Equal(t, 0, stream.Argument("initialCount").DefaultValue)
}

func TestSatisfies(t *testing.T) {
	s := NewSchema("")
	pet := NewType("Pet", TypeKindInterface, "").AddPossibleType("Dog").AddPossibleType("Cat")
	catOrDog := NewType("CatOrDog", TypeKindUnion, "").AddPossibleType("Cat").AddPossibleType("Dog")
	dog := NewType("Dog", TypeKindObject, "").AddInterface("Pet")
	bird := NewType("Bird", TypeKindObject, "")
	s.AddType(pet).AddType(catOrDog).AddType(dog).AddType(bird)

	require.True(t, s.Satisfies(dog, "Dog"), "exact match")
	require.True(t, s.Satisfies(dog, "Pet"), "interface implementation")
	require.True(t, s.Satisfies(dog, "CatOrDog"), "union membership")
	require.False(t, s.Satisfies(bird, "Pet"))
	require.False(t, s.Satisfies(bird, "CatOrDog"))
	require.False(t, s.Satisfies(dog, "Unknown"))
}

func TestScalarSerializers(t *testing.T) {
	s := NewSchema("")

	intSer := s.Types["Int"].Serialize
	got, err := intSer(int64(7))
	require.NoError(t, err)
	require.Equal(t, 7, got)
	got, err = intSer(3.0)
	require.NoError(t, err)
	require.Equal(t, 3, got)
	_, err = intSer(3.5)
	require.Error(t, err)
	_, err = intSer(int64(1) << 40)
	require.Error(t, err)

	idSer := s.Types["ID"].Serialize
	got, err = idSer(42)
	require.NoError(t, err)
	require.Equal(t, "42", got)
	got, err = idSer("abc")
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	boolSer := s.Types["Boolean"].Serialize
	got, err = boolSer(1)
	require.NoError(t, err)
	require.Equal(t, true, got)

	strSer := s.Types["String"].Serialize
	got, err = strSer(false)
	require.NoError(t, err)
	require.Equal(t, "false", got)
}

func TestTypeRefHelpers(t *testing.T) {
	ref := NonNullType(ListType(NonNullType(NamedType("Episode"))))
	require.True(t, IsNonNull(ref))
	require.True(t, IsList(ref))
	require.Equal(t, "Episode", GetNamedType(ref))
	require.Equal(t, "[Episode!]!", ref.String())

	inner := Unwrap(ref)
	require.True(t, IsList(inner))
	require.False(t, IsNonNull(inner))
}

func TestFieldAndArgumentLookup(t *testing.T) {
	f := NewField("friends", "", ListType(NamedType("Character"))).
		AddArgument(NewInputValue("first", "", NamedType("Int")).SetDefault(10))
	typ := NewType("Character", TypeKindObject, "").AddField(f)

	require.Equal(t, f, typ.Field("friends"))
	require.Nil(t, typ.Field("enemies"))
	require.Equal(t, 10, f.Argument("first").DefaultValue)
	require.True(t, f.Argument("first").HasDefault)
	require.Nil(t, f.Argument("last"))
}
